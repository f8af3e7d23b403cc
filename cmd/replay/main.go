// Command replay runs a recorded landmark stream through a calibration
// or exercise session offline and writes the report artifacts. Input is
// JSONL: one landmark frame per line, in the same format the live ingest
// endpoints accept.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/reachwell/reachwell/internal/coach"
	"github.com/reachwell/reachwell/internal/config"
	"github.com/reachwell/reachwell/internal/db"
	"github.com/reachwell/reachwell/internal/feedback"
	"github.com/reachwell/reachwell/internal/pose"
	"github.com/reachwell/reachwell/internal/report"
	"github.com/reachwell/reachwell/internal/timeutil"
)

func main() {
	var (
		inPath   string
		dbPath   string
		userID   string
		kind     string
		exercise string
		level    int
		mirror   bool
		fps      float64
		htmlOut  string
		pngOut   string
	)

	flag.StringVar(&inPath, "in", "", "path to JSONL landmark recording (required)")
	flag.StringVar(&dbPath, "db", "reachwell.db", "path to sqlite db")
	flag.StringVar(&userID, "user", "replay", "user id for the replayed session")
	flag.StringVar(&kind, "kind", "calibration", "session kind: calibration or exercise")
	flag.StringVar(&exercise, "exercise", string(feedback.ShoulderAbduction), "exercise for kind=exercise")
	flag.IntVar(&level, "level", 1, "target level for kind=exercise")
	flag.BoolVar(&mirror, "mirror", false, "treat the recording as mirrored (selfie camera)")
	flag.Float64Var(&fps, "fps", 15, "frame rate the recording was captured at")
	flag.StringVar(&htmlOut, "report", "", "output path for the HTML report (default derived from -user)")
	flag.StringVar(&pngOut, "trail", "", "output path for the trail PNG (default derived from -user)")
	flag.Parse()

	if htmlOut == "" {
		htmlOut = report.DefaultArtifactName(userID, ".html")
	}
	if pngOut == "" {
		pngOut = report.DefaultArtifactName(userID, "-trail.png")
	}

	if inPath == "" {
		log.Fatal("-in is required")
	}
	if fps <= 0 {
		log.Fatal("-fps must be positive")
	}

	f, err := os.Open(inPath)
	if err != nil {
		log.Fatalf("open recording: %v", err)
	}
	defer f.Close()

	dbConn, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	store := db.NewCalibrationStore(dbConn)
	cfg := config.MustLoadDefaultConfig()

	// frames are replayed on a mock clock stepped at the recording rate,
	// so hold timers and cooldowns behave as they did live
	clock := timeutil.NewMockClock(time.Now())
	runner := coach.NewRunner(coach.RunnerConfig{
		Ladder: cfg.LadderConfig(),
		Feedback: func(level int) feedback.Config {
			return cfg.FeedbackConfig(level)
		},
		TickInterval: cfg.GetTickInterval(),
	}, store, clock)

	switch kind {
	case "calibration":
		if _, err := runner.StartCalibration(userID, mirror); err != nil {
			log.Fatalf("start calibration: %v", err)
		}
	case "exercise":
		if _, err := runner.StartExercise(userID, feedback.Exercise(exercise), level, mirror); err != nil {
			log.Fatalf("start exercise: %v", err)
		}
	default:
		log.Fatalf("unknown kind %q", kind)
	}

	frameDur := time.Duration(float64(time.Second) / fps)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	var (
		lineNo int
		shown  int
		last   coach.Status
	)
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var frame pose.Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			log.Printf("line %d: skipping bad frame: %v", lineNo, err)
			continue
		}
		clock.Advance(frameDur)
		runner.Submit(&frame)
		last = runner.Tick(clock.Now())
		if last.Exercise != nil && last.Exercise.Shown {
			shown++
			fmt.Printf("frame %d: [%s] %s\n", lineNo, last.Exercise.Severity, last.Exercise.Message)
		}
		if last.Ladder != nil && last.Ladder.Saved {
			fmt.Printf("frame %d: rung saved (%s hand)\n", lineNo, last.Ladder.Side)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("read recording: %v", err)
	}

	samples := runner.Samples()
	fmt.Printf("\nReplayed %d frames (%d messages shown)\n", lineNo, shown)
	if last.Ladder != nil {
		fmt.Printf("Calibration finished at step %q\n", last.Ladder.Step)
	}

	if len(samples) > 0 {
		exporter := report.NewExporter()
		if err := exporter.WriteHTMLReport(htmlOut, last, samples); err != nil {
			log.Fatalf("write report: %v", err)
		}
		if err := exporter.WriteTrailPNG(pngOut, samples); err != nil {
			log.Fatalf("write trail plot: %v", err)
		}
		fmt.Printf("Wrote %s and %s\n", htmlOut, pngOut)
	}

	runner.Stop()
}
