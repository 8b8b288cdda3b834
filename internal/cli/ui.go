package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/osvaldoandrade/envprov/internal/domain"
)

// tone is what a fragment of human output means. The palette decides how
// each tone looks on a terminal; elsewhere every tone prints plain.
type tone int

const (
	tonePlain tone = iota
	toneLabel
	toneGood
	toneWarn
	toneBad
	toneMuted
	toneStage
)

const styleReset = "\x1b[0m"

var palette = map[tone]string{
	toneLabel: "\x1b[1;36m",
	toneGood:  "\x1b[1;32m",
	toneWarn:  "\x1b[1;33m",
	toneBad:   "\x1b[1;31m",
	toneMuted: "\x1b[2m",
	toneStage: "\x1b[1;35m",
}

var statusTones = map[domain.StepStatus]tone{
	domain.StepDone:    toneGood,
	domain.StepSkipped: toneMuted,
	domain.StepWarned:  toneWarn,
	domain.StepFailed:  toneBad,
}

// stageOrder is the provisioning ladder drawn by renderer.stage.
var stageOrder = []domain.Stage{
	domain.StageUnprovisioned,
	domain.StageReposReady,
	domain.StageEnvReady,
	domain.StagePackagesReady,
	domain.StageVerified,
}

type renderer struct {
	color bool
}

func newRenderer(out io.Writer, asJSON bool) renderer {
	return renderer{color: styled(out, asJSON)}
}

func (r renderer) paint(t tone, text string) string {
	code, ok := palette[t]
	if !r.color || !ok || text == "" {
		return text
	}
	return code + text + styleReset
}

func (r renderer) label(key string) string {
	return r.paint(toneLabel, key)
}

func (r renderer) status(status domain.StepStatus) string {
	return r.paint(statusTones[status], string(status))
}

// stage shows how far a run climbed, e.g. "[==--] ENV_READY".
func (r renderer) stage(stage domain.Stage) string {
	reached := 0
	for i, s := range stageOrder {
		if stage.Reached(s) {
			reached = i
		}
	}
	rungs := len(stageOrder) - 1
	ladder := "[" + strings.Repeat("=", reached) + strings.Repeat("-", rungs-reached) + "]"

	t := toneStage
	if stage == domain.StageVerified {
		t = toneGood
	}
	return r.paint(toneMuted, ladder) + " " + r.paint(t, string(stage))
}

// styled reports whether human output to out may carry ANSI styling and
// progress redraws. NO_COLOR and TERM=dumb turn both off.
func styled(out io.Writer, asJSON bool) bool {
	if asJSON || strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return false
	}
	if term := strings.TrimSpace(os.Getenv("TERM")); term == "" || term == "dumb" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

const busyInterval = 150 * time.Millisecond

var busyFrames = []rune{'|', '/', '-', '\\'}

// busy redraws label with the elapsed seconds on out until fn returns. fn
// owns cancellation; the indicator only stops when it comes back.
func busy(out io.Writer, enabled bool, label string, fn func() error) error {
	if !enabled {
		return fn()
	}
	result := make(chan error, 1)
	go func() {
		result <- fn()
	}()

	tick := time.NewTicker(busyInterval)
	defer tick.Stop()
	started := time.Now()
	for frame := 0; ; frame++ {
		select {
		case err := <-result:
			fmt.Fprint(out, "\r\x1b[2K")
			return err
		case <-tick.C:
			fmt.Fprintf(out, "\r%c %s %ds", busyFrames[frame%len(busyFrames)], label, int(time.Since(started).Seconds()))
		}
	}
}
