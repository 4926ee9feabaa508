package main

import (
	"context"
	"fmt"
	"os"

	"github.com/buckleypaul/dwpanel/internal/config"
	"github.com/buckleypaul/dwpanel/internal/console"
	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/form"
	"github.com/buckleypaul/dwpanel/internal/report"
)

func runCommand(ctx context.Context, cfg config.Config, client *device.Client, args []string) error {
	switch args[0] {
	case "ports":
		return listPorts()
	case "backup":
		if len(args) != 2 {
			return fmt.Errorf("usage: dwpanel backup <file.yaml>")
		}
		return backup(ctx, client, args[1])
	case "restore":
		if len(args) != 2 {
			return fmt.Errorf("usage: dwpanel restore <file.yaml>")
		}
		return restore(ctx, client, args[1])
	case "report":
		if len(args) != 2 {
			return fmt.Errorf("usage: dwpanel report <file.html>")
		}
		return writeReport(ctx, cfg, client, args[1])
	case "init":
		if err := config.Save(cfg, ""); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		fmt.Println("Wrote", config.GlobalPath())
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func listPorts() error {
	ports, err := console.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}
	for _, p := range ports {
		line := p.Name
		if p.IsUSB {
			line += fmt.Sprintf("  USB %s:%s", p.VID, p.PID)
		}
		if p.IsPico() {
			line += "  (Pico)"
		}
		fmt.Println(line)
	}
	return nil
}

func backup(ctx context.Context, client *device.Client, path string) error {
	cfg, err := client.Config(ctx)
	if err != nil {
		return fmt.Errorf("fetch config: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := form.WriteBackup(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func restore(ctx context.Context, client *device.Client, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := form.ReadBackup(f)
	if err != nil {
		return err
	}
	if err := client.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println("Configuration saved successfully!")
	return nil
}

func writeReport(ctx context.Context, cfg config.Config, client *device.Client, path string) error {
	r, err := report.Collect(ctx, cfg.DeviceURL, client)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Write(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
