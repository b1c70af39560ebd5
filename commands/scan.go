package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/sensortag-sheets/sensortag-sheets/config"
	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

var ScanCmd = Scan{
	timeout: 10 * time.Second,
}

type Scan struct {
	timeout time.Duration
	all     bool
}

type scanner interface {
	Scan(ctx context.Context, timeout time.Duration, all bool) ([]sensortag.Advertisement, error)
}

func (cmd *Scan) Name() string {
	return "scan"
}

func (cmd *Scan) Description() string {
	return "Lists the SensorTags in range"
}

func (cmd *Scan) Usage() string {
	return "[--timeout <duration>] [--all]"
}

func (cmd *Scan) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] scan [--timeout <duration>] [--all]\n", APP)
	fmt.Println()
	fmt.Println("  Scans for Bluetooth LE advertisements and lists the address, signal strength and name of each SensorTag")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s scan --timeout 30s\n", APP)
	fmt.Println()
}

func (cmd *Scan) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("scan", flag.ExitOnError)

	flagset.DurationVar(&cmd.timeout, "timeout", cmd.timeout, "Scan duration")
	flagset.BoolVar(&cmd.all, "all", cmd.all, "Lists every Bluetooth LE peripheral, not just SensorTags")

	return flagset
}

func (cmd *Scan) configure(c *config.Config) {
}

func (cmd *Scan) Execute(args ...any) error {
	ctx, _ := arguments(args...)

	if cmd.timeout <= 0 {
		return fmt.Errorf("invalid --timeout (%v)", cmd.timeout)
	}

	infof("scanning for %v", cmd.timeout)

	return cmd.scan(ctx, sensortag.NewBLE(component("ble")))
}

func (cmd *Scan) scan(ctx context.Context, s scanner) error {
	list, err := s.Scan(ctx, cmd.timeout, cmd.all)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("no SensorTags found")
		return nil
	}

	for _, v := range list {
		fmt.Printf("%-17v  %4d dBm  %v\n", v.Address, v.RSSI, v.Name)
	}

	return nil
}
