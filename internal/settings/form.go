// Package settings edits config.yaml through an interactive form.
package settings

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"replctl/internal/config"
	"replctl/internal/system"
)

var levels = []string{"debug", "info", "warn", "error"}

// values mirrors the editable config fields as form-friendly strings.
type values struct {
	Command       string
	PackageDir    string
	ReadTimeout   string
	BatchSize     string
	Autoreload    bool
	HideInputs    bool
	HideVariables bool
	StopPattern   string
	LogLevel      string
	ServerAddr    string
}

func fromConfig(c config.Config) values {
	return values{
		Command:       strings.Join(c.Swift.Command, " "),
		PackageDir:    c.Swift.PackageDir,
		ReadTimeout:   c.REPL.ReadTimeout.String(),
		BatchSize:     strconv.Itoa(c.REPL.BatchSize),
		Autoreload:    c.REPL.Autoreload,
		HideInputs:    c.Output.HideInputs,
		HideVariables: c.Output.HideVariables,
		StopPattern:   c.Output.StopPattern,
		LogLevel:      c.Log.Level,
		ServerAddr:    c.Server.Addr,
	}
}

// apply validates v and writes it over c.
func (v values) apply(c config.Config) (config.Config, error) {
	d, err := parseTimeout(v.ReadTimeout)
	if err != nil {
		return c, err
	}
	n, err := parseBatch(v.BatchSize)
	if err != nil {
		return c, err
	}
	if err := validPattern(v.StopPattern); err != nil {
		return c, err
	}
	c.Swift.Command = nil
	if f := strings.Fields(v.Command); len(f) > 0 {
		c.Swift.Command = f
	}
	c.Swift.PackageDir = strings.TrimSpace(v.PackageDir)
	c.REPL.ReadTimeout = d
	c.REPL.BatchSize = n
	c.REPL.Autoreload = v.Autoreload
	c.Output.HideInputs = v.HideInputs
	c.Output.HideVariables = v.HideVariables
	c.Output.StopPattern = v.StopPattern
	c.Log.Level = v.LogLevel
	c.Server.Addr = strings.TrimSpace(v.ServerAddr)
	return c, nil
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("read timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("read timeout must be positive")
	}
	return d, nil
}

func parseBatch(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("batch size must be a positive integer")
	}
	return n, nil
}

func validPattern(s string) error {
	if _, err := regexp.Compile(s); err != nil {
		return fmt.Errorf("stop pattern: %w", err)
	}
	return nil
}

// Run shows the form prefilled from c and returns the edited config. The
// caller saves it.
func Run(ctx context.Context, c config.Config) (config.Config, error) {
	v := fromConfig(c)

	// Light theme tweaks inspired by freeze/interactive.go
	green := lipgloss.Color("#03BF87")
	theme := huh.ThemeCharm()
	theme.FieldSeparator = lipgloss.NewStyle()
	theme.Blurred.Title = theme.Blurred.Title.Width(18).Foreground(lipgloss.Color("7"))
	theme.Focused.Title = theme.Focused.Title.Width(18).Foreground(green).Bold(true)
	theme.Blurred.SelectedOption = theme.Blurred.SelectedOption.Foreground(lipgloss.Color("243"))
	theme.Focused.SelectedOption = lipgloss.NewStyle().Foreground(green)
	theme.Focused.Base = theme.Focused.Base.BorderForeground(green)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("REPL").Description("How replctl starts and talks to the Swift REPL"),
			huh.NewInput().Title("Command").Description("empty: swift repl / swift run --repl").Value(&v.Command),
			huh.NewInput().Title("Package dir").Description("directory with Package.swift").Value(&v.PackageDir),
			huh.NewInput().Title("Read timeout").Value(&v.ReadTimeout).Validate(func(s string) error {
				_, err := parseTimeout(s)
				return err
			}),
			huh.NewInput().Title("Batch size").Value(&v.BatchSize).Validate(func(s string) error {
				_, err := parseBatch(s)
				return err
			}),
			huh.NewConfirm().Title("Autoreload").Value(&v.Autoreload),
		),
		huh.NewGroup(
			huh.NewNote().Title("Output"),
			huh.NewConfirm().Title("Hide inputs").Value(&v.HideInputs),
			huh.NewConfirm().Title("Hide variables").Value(&v.HideVariables),
			huh.NewInput().Title("Stop pattern").Description("regexp; output stops before the first match").
				Value(&v.StopPattern).Validate(validPattern),
			huh.NewSelect[string]().Title("Log level").Options(huh.NewOptions(levels...)...).Value(&v.LogLevel),
			huh.NewInput().Title("Server addr").Value(&v.ServerAddr),
		),
	).WithTheme(theme).WithWidth(70)

	if err := form.RunWithContext(ctx); err != nil {
		return c, err // form canceled or failed
	}
	out, err := v.apply(c)
	if err != nil {
		return c, err
	}
	system.Logger.Debug("settings edited", "package_dir", out.Swift.PackageDir, "batch_size", out.REPL.BatchSize)
	return out, nil
}
