package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bacli/bacli/internal/bitaxe"
	"github.com/bacli/bacli/internal/ui"
)

// DefaultWatchInterval is how often 'bacli watch' polls the device.
const DefaultWatchInterval = 5 * time.Second

func newInfoCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <device>",
		Short: "Get general information about the device",
		Example: `  # Show device status
  bacli info 192.168.1.42

  # By alias, as JSON for scripting
  bacli info garage --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.deviceClient(args[0])
			if err != nil {
				return err
			}

			info, err := client.SystemInfo(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), info.FormatDetailed(client.Address))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON instead of the formatted information")
	return cmd
}

func newRestartCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restart <device>",
		Short: "Restart the device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.deviceClient(args[0])
			if err != nil {
				return err
			}

			if err := client.Restart(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Device successfully restarted.")
			return nil
		},
	}
}

// settingsFlags are the raw flag values of update-settings. Numbers are read
// as int and range checked before narrowing.
type settingsFlags struct {
	hostname, ssid, wifiPass string

	stratumURL, stratumUser, stratumPassword string
	stratumPort                              int

	fallbackURL, fallbackUser, fallbackPassword string
	fallbackPort                                int

	fanSpeed    int
	coreVoltage int
	frequency   int

	autoFanSpeed, flipScreen, invertFanPolarity, invertScreen, overheatMode bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()

	fs.StringVar(&f.hostname, "hostname", "", "Device hostname")
	fs.StringVar(&f.ssid, "ssid", "", "WiFi network name")
	fs.StringVar(&f.wifiPass, "wifi-pass", "", "WiFi password")

	fs.StringVar(&f.stratumURL, "stratum-url", "", "Main pool URL")
	fs.IntVar(&f.stratumPort, "stratum-port", 0, "Main pool port")
	fs.StringVar(&f.stratumUser, "stratum-user", "", "Main pool user")
	fs.StringVar(&f.stratumPassword, "stratum-password", "", "Main pool password")

	fs.StringVar(&f.fallbackURL, "fallback-stratum-url", "", "Fallback pool URL")
	fs.IntVar(&f.fallbackPort, "fallback-stratum-port", 0, "Fallback pool port")
	fs.StringVar(&f.fallbackUser, "fallback-stratum-user", "", "Fallback pool user")
	fs.StringVar(&f.fallbackPassword, "fallback-stratum-password", "", "Fallback pool password")

	fs.IntVar(&f.fanSpeed, "fan-speed", 0, "Fan speed in percent (0-100)")
	fs.BoolVar(&f.autoFanSpeed, "auto-fan-speed", false, "Let the device control the fan")
	fs.IntVar(&f.coreVoltage, "core-voltage", 0, "ASIC core voltage in mV "+listValues(bitaxe.Voltages))
	fs.IntVar(&f.frequency, "frequency", 0, "ASIC frequency in MHz "+listValues(bitaxe.Frequencies))

	fs.BoolVar(&f.flipScreen, "flip-screen", false, "Flip the display")
	fs.BoolVar(&f.invertFanPolarity, "invert-fan-polarity", false, "Invert the fan polarity")
	fs.BoolVar(&f.invertScreen, "invert-screen", false, "Invert the display colours")
	fs.BoolVar(&f.overheatMode, "overheat-mode", false, "Overheat mode (pass =false to clear it)")
}

// settings builds a patch holding only the flags the user set.
func (f *settingsFlags) settings(cmd *cobra.Command) (bitaxe.Settings, error) {
	var s bitaxe.Settings
	changed := cmd.Flags().Changed

	setString := func(name string, value string, dst **string) {
		if changed(name) {
			v := value
			*dst = &v
		}
	}
	setBool := func(name string, value bool, dst **bool) {
		if changed(name) {
			v := value
			*dst = &v
		}
	}

	setString("hostname", f.hostname, &s.Hostname)
	setString("ssid", f.ssid, &s.SSID)
	setString("wifi-pass", f.wifiPass, &s.WifiPass)
	setString("stratum-url", f.stratumURL, &s.StratumURL)
	setString("stratum-user", f.stratumUser, &s.StratumUser)
	setString("stratum-password", f.stratumPassword, &s.StratumPassword)
	setString("fallback-stratum-url", f.fallbackURL, &s.FallbackStratumURL)
	setString("fallback-stratum-user", f.fallbackUser, &s.FallbackStratumUser)
	setString("fallback-stratum-password", f.fallbackPassword, &s.FallbackStratumPassword)

	setBool("auto-fan-speed", f.autoFanSpeed, &s.AutoFanSpeed)
	setBool("flip-screen", f.flipScreen, &s.FlipScreen)
	setBool("invert-fan-polarity", f.invertFanPolarity, &s.InvertFanPolarity)
	setBool("invert-screen", f.invertScreen, &s.InvertScreen)
	setBool("overheat-mode", f.overheatMode, &s.OverheatMode)

	var errs []error

	if changed("stratum-port") {
		if err := bitaxe.ValidateStratumPort(f.stratumPort); err != nil {
			errs = append(errs, err)
		} else {
			port := uint16(f.stratumPort)
			s.StratumPort = &port
		}
	}
	if changed("fallback-stratum-port") {
		if err := bitaxe.ValidateStratumPort(f.fallbackPort); err != nil {
			errs = append(errs, fmt.Errorf("fallback: %w", err))
		} else {
			port := uint16(f.fallbackPort)
			s.FallbackStratumPort = &port
		}
	}
	if changed("fan-speed") {
		if err := bitaxe.ValidateFanSpeed(f.fanSpeed); err != nil {
			errs = append(errs, err)
		} else {
			speed := uint8(f.fanSpeed)
			s.FanSpeed = &speed
		}
	}
	if changed("core-voltage") {
		if err := bitaxe.ValidateVoltage(f.coreVoltage); err != nil {
			errs = append(errs, err)
		} else {
			v := bitaxe.Voltage(f.coreVoltage)
			s.CoreVoltage = &v
		}
	}
	if changed("frequency") {
		if err := bitaxe.ValidateFrequency(f.frequency); err != nil {
			errs = append(errs, err)
		} else {
			freq := bitaxe.Frequency(f.frequency)
			s.Frequency = &freq
		}
	}

	if err := errors.Join(errs...); err != nil {
		return s, err
	}
	return s, s.Validate()
}

func newUpdateSettingsCmd(flags *globalFlags) *cobra.Command {
	sf := &settingsFlags{}

	cmd := &cobra.Command{
		Use:   "update-settings <device>",
		Short: "Update the settings on the device",
		Long: `Update one or more settings on the device.

Only the flags you pass are sent; every other setting is left as it is.
Most settings take effect after 'bacli restart'.`,
		Example: `  # Overclock a little
  bacli update-settings garage --frequency 575 --core-voltage 1200

  # Switch pools
  bacli update-settings 192.168.1.42 --stratum-url public-pool.io --stratum-port 21496`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := sf.settings(cmd)
			if err != nil {
				return fmt.Errorf("invalid settings: %w", err)
			}

			client, err := flags.deviceClient(args[0])
			if err != nil {
				return err
			}

			if err := client.UpdateSettings(cmd.Context(), settings); err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Device settings successfully updated.")
			return nil
		},
	}

	sf.register(cmd)
	return cmd
}

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the devices in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.loadStore()
			if err != nil {
				return err
			}

			if store.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No devices currently configured.")
				return nil
			}

			devices := store.Devices()
			rows := make([][]string, 0, len(devices))
			for _, d := range devices {
				rows = append(rows, []string{d.Base, ui.OrPlaceholder(d.Alias)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTable([]string{"IP", "Alias"}, rows))
			return nil
		},
	}
}

func newAliasCmd(flags *globalFlags) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "alias <device> [alias]",
		Short: "Name a device so other commands can refer to it by alias",
		Example: `  # Record a device with an alias
  bacli alias 192.168.1.42 garage

  # Forget it again
  bacli alias garage --remove`,
		Args: func(cmd *cobra.Command, args []string) error {
			if remove {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.loadStore()
			if err != nil {
				return err
			}

			title := "Device saved"
			details := []ui.Param{{Key: "Device", Value: args[0]}}
			if remove {
				if !store.Remove(args[0]) {
					return fmt.Errorf("no device matches %q", args[0])
				}
				title = "Device removed"
			} else {
				alias := args[1]
				store.Upsert(args[0], &alias)
				details = append(details, ui.Param{Key: "Alias", Value: alias})
			}

			if err := store.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			details = append(details, ui.Param{Key: "Config", Value: store.Path()})
			ui.PrintSuccess(cmd.OutOrStdout(), title, details)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the device from the config file")
	return cmd
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <device>",
		Short: "Show a live dashboard of the device",
		Long: `Poll the device and show hash rate, temperatures, power and pool status
until you press q. The last good reading stays on screen when a poll fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}
			if !ui.IsTerminal() {
				return errors.New("watch needs an interactive terminal, use 'bacli info' instead")
			}

			client, err := flags.deviceClient(args[0])
			if err != nil {
				return err
			}

			return ui.RunWatch(cmd.Context(), client.Address, interval, client.SystemInfo)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", DefaultWatchInterval, "Poll interval")
	return cmd
}

func newLogsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <device>",
		Short: "Stream the device console log",
		Long:  `Follow the device's live console log until interrupted with Ctrl+C.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.deviceClient(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Streaming logs from %s (Ctrl+C to stop)...\n", client.Address)

			out := cmd.OutOrStdout()
			err = client.StreamLogs(cmd.Context(), func(line string) {
				fmt.Fprint(out, line)
				if len(line) == 0 || line[len(line)-1] != '\n' {
					fmt.Fprintln(out)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func listValues[T ~uint16](values []T) string {
	s := "("
	for i, v := range values {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprint(uint16(v))
	}
	return s + ")"
}
