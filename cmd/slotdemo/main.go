package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/slotparty/cmd/slotdemo/templates"
	"github.com/delaneyj/slotparty/config"
	"github.com/delaneyj/slotparty/hal"
)

const (
	configKey     = "config"
	interruptsKey = "interrupts"
	verbosityKey  = "verbosity"
)

func main() {
	flag.Set("logtostderr", "true")
	defer glog.Flush()

	cmd := &cli.Command{
		Name:  "slotdemo",
		Usage: "Drive a simulated board through signals and slots",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Build the board, raise timer interrupts and report what happened",
				Flags: append(boardFlags(),
					&cli.IntFlag{
						Name:  interruptsKey,
						Usage: "Number of timer interrupts to raise",
						Value: 12,
					},
				),
				Action: run,
			},
			{
				Name:   "config",
				Usage:  "Print the effective board configuration",
				Flags:  boardFlags(),
				Action: showConfig,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		glog.Exit(err)
	}
}

func boardFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  configKey,
			Usage: "Board description in YAML, the built-in board when empty",
		},
		&cli.IntFlag{
			Name:  verbosityKey,
			Usage: "glog verbosity",
		},
	}
}

func loadBoard(cmd *cli.Command) (config.Board, error) {
	if v := cmd.Int(verbosityKey); v > 0 {
		flag.Set("v", strconv.FormatInt(v, 10))
	}
	return config.Load(cmd.String(configKey))
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadBoard(cmd)
	if err != nil {
		return err
	}
	interrupts := int(cmd.Int(interruptsKey))
	if interrupts < 0 {
		return fmt.Errorf("--%s must not be negative", interruptsKey)
	}

	start := time.Now()
	b, err := newBoard(cfg)
	if err != nil {
		return fmt.Errorf("building board %s: %w", cfg.Name, err)
	}
	b.run(interrupts)
	glog.Infof("board %s ran %d interrupts in %v", cfg.Name, interrupts, time.Since(start))

	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	templates.WriteRunReport(w, b.summary(interrupts))
	b.writeRegistries(w)
	return nil
}

// writeRegistries prints one row per registered driver, in dispatch order.
func (b *board) writeRegistries(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"registry", "#", "handle", "irq", "state", "events"})

	row := func(reg string, i int, h hal.Handle, state string, events uint64) {
		table.Append([]string{
			reg,
			strconv.Itoa(i),
			string(h),
			strconv.Itoa(int(b.irqs[h])),
			state,
			humanize.Comma(int64(events)),
		})
	}
	i := 0
	for t := range b.timers.All() {
		row(b.timers.Name(), i, t.Handle(), t.State().String(), t.Ticks())
		i++
	}
	i = 0
	for a := range b.adcs.All() {
		row(b.adcs.Name(), i, a.Handle(), a.State().String(), b.samples[a.Handle()])
		i++
	}
	i = 0
	for u := range b.uarts.All() {
		row(b.uarts.Name(), i, u.Handle(), u.State().String(), b.written[u.Handle()]+b.received[u.Handle()])
		i++
	}
	i = 0
	for hs := range b.hashes.All() {
		row(b.hashes.Name(), i, hs.Handle(), hs.State().String(), b.digests[hs.Handle()])
		i++
	}
	table.Render()
}

func showConfig(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadBoard(cmd)
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	writeConfig(w, cfg)
	return nil
}

func writeConfig(w io.Writer, cfg config.Board) {
	fmt.Fprintf(w, "board %s: %d peripherals, error fan-out %d, overflow %s\n",
		cfg.Name, cfg.Count(), cfg.ErrorFanOut, cfg.Overflow)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"class", "handle", "irq", "period", "loopback"})
	add := func(class hal.ClassID, list []config.Peripheral) {
		for _, p := range list {
			period := ""
			if class == hal.ClassTimer {
				period = humanize.Comma(int64(p.Period))
			}
			loopback := ""
			if class == hal.ClassUART {
				loopback = strconv.FormatBool(p.Loopback)
			}
			table.Append([]string{class.String(), p.Handle, strconv.Itoa(int(p.IRQ)), period, loopback})
		}
	}
	add(hal.ClassTimer, cfg.Timers)
	add(hal.ClassADC, cfg.ADCs)
	add(hal.ClassUART, cfg.UARTs)
	add(hal.ClassHash, cfg.Hashes)
	table.Render()
}
