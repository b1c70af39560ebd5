package commands

import (
	"flag"
	"fmt"
	"strings"

	"github.com/sensortag-sheets/sensortag-sheets/config"
	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

var ReadCmd = Read{}

type Read struct {
	address  string
	sanitise bool
}

func (cmd *Read) Name() string {
	return "read"
}

func (cmd *Read) Description() string {
	return "Takes a single reading from a SensorTag"
}

func (cmd *Read) Usage() string {
	return "--address <address>"
}

func (cmd *Read) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] read --address <address> [--sanitise]\n", APP)
	fmt.Println()
	fmt.Println("  Connects to a SensorTag, reads the temperature, humidity, pressure and light sensors once and")
	fmt.Println("  displays the reading")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s read --address A0:E6:F8:AE:F3:01\n", APP)
	fmt.Println()
}

func (cmd *Read) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("read", flag.ExitOnError)

	flagset.StringVar(&cmd.address, "address", cmd.address, "SensorTag Bluetooth address e.g. A0:E6:F8:AE:F3:01")
	flagset.BoolVar(&cmd.sanitise, "sanitise", cmd.sanitise, "Blanks implausible humidity sensor values")

	return flagset
}

func (cmd *Read) configure(c *config.Config) {
	cmd.address = c.Address
}

func (cmd *Read) Execute(args ...any) error {
	ctx, _ := arguments(args...)

	if strings.TrimSpace(cmd.address) == "" {
		return fmt.Errorf("--address is a required option")
	}

	tag := sensortag.New(cmd.address, sensortag.NewBLE(component("ble")), component("sensortag"))

	if err := tag.Connect(ctx); err != nil {
		return err
	}

	defer tag.Disconnect()

	reading, err := tag.Read(ctx)
	if err != nil {
		return err
	}

	if cmd.sanitise {
		reading = reading.Sanitise()
	}

	fmt.Println(reading)

	return nil
}
