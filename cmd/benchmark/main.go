package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/delaneyj/slotparty/hal"
	"github.com/delaneyj/slotparty/hal/sim"
	"github.com/delaneyj/slotparty/periph"
	"github.com/delaneyj/slotparty/sigslot"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write a CPU profile to this file")
	iters      = flag.Int("iters", 1_000, "samples per row")

	fanOuts = []int{1, 4, 16, 64, 256}
	drivers = []int{1, 8, 64, 512}
)

type counter struct {
	n int
}

func (c *counter) add(v int) { c.n += v }

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkEmit(false)
	benchmarkDispatch(false)

	benchmarkEmit(true)
	benchmarkDispatch(true)
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{
		{
			name,
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		},
	})
}

// benchmarkEmit times one emission to n connected slots on both signal
// flavours.
func benchmarkEmit(shouldRender bool) {
	tbl := newTable("Emission")

	for _, n := range fanOuts {
		recv := make([]counter, n)

		chain := &sigslot.Signal[int]{}
		fixed := sigslot.NewFixedSignal[int](n)
		for i := range recv {
			chain.Connect(sigslot.NewSlot(&recv[i], (*counter).add))
			fixed.Connect(sigslot.NewSlot(&recv[i], (*counter).add))
		}

		for _, sig := range []struct {
			name string
			emit func(int)
		}{
			{"chain", chain.Emit},
			{"fixed", fixed.Emit},
		} {
			tach := tachymeter.New(&tachymeter.Config{Size: *iters})
			for i := 0; i < *iters; i++ {
				start := time.Now()
				sig.emit(i)
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, fmt.Sprintf("%s: %d slots", sig.name, n), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkDispatch times the path from a raised interrupt to the Timeout
// slot of the last timer in a registry of n timers.
func benchmarkDispatch(shouldRender bool) {
	tbl := newTable("Interrupt dispatch")

	for _, n := range drivers {
		ctrl := sim.NewController()
		backend := sim.NewTimer(ctrl)
		reg := periph.NewTimerRegistry()
		periph.InstallTimerISR(backend, reg)

		var last hal.Handle
		for i := 0; i < n; i++ {
			h := hal.Handle(fmt.Sprintf("TIM%d", i))
			backend.Attach(h, hal.IRQ(i))
			t, err := periph.NewTimer(reg, backend, h)
			if err != nil {
				log.Fatal(err)
			}
			t.Init()
			t.Start(1)
			t.Timeout.Connect(sigslot.NewStaticSlot(func(uint64) {}))
			last = h
		}

		tach := tachymeter.New(&tachymeter.Config{Size: *iters})
		for i := 0; i < *iters; i++ {
			start := time.Now()
			backend.Elapse(last)
			tach.AddTime(time.Since(start))
		}
		appendCalc(tbl, fmt.Sprintf("dispatch: %d timers", n), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}
