package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/barakplasma/Accessible-guitar-tuner/internal/audio"
	"github.com/barakplasma/Accessible-guitar-tuner/internal/capture"
	"github.com/barakplasma/Accessible-guitar-tuner/internal/spectrum"
	"github.com/barakplasma/Accessible-guitar-tuner/internal/tone"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/logger"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/models"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/tuner"
	"github.com/barakplasma/Accessible-guitar-tuner/pkg/tuner/pitch"
)

// Global flags
var (
	dbPath     string
	tempDir    string
	sampleRate int
	threshold  float64
)

func init() {
	// Global flags that can be used with any command
	flag.StringVar(&dbPath, "db", getEnvOrDefault("TUNER_DB_PATH", "tuner.sqlite3"), "Path to the SQLite database file")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("TUNER_TEMP_DIR", "/tmp"), "Directory for temporary audio conversion files")
	flag.IntVar(&sampleRate, "rate", 44100, "Audio sample rate for capture and analysis")
	flag.Float64Var(&threshold, "threshold", pitch.DefaultConfidenceThreshold, "Peak-to-average confidence required to report a note")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a new tuner service with configured options
func createService() (tuner.Service, error) {
	return tuner.NewService(
		tuner.WithDBPath(dbPath),
		tuner.WithTempDir(tempDir),
		tuner.WithConfidenceThreshold(threshold),
	)
}

func main() {
	log := logger.GetLogger()

	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Infof("Executing command: %s", command)

	switch command {
	case "listen":
		handleListen()
	case "analyze":
		handleAnalyze()
	case "sessions":
		handleSessions()
	case "detections":
		handleDetections()
	case "delete":
		handleDelete()
	case "tone":
		handleTone()
	case "notes":
		handleNotes()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
  _____                       _____ _   _ _ __   ___ _ __
 |_   _|   _ _ __   ___ _ __  |_   _| | | | '_ \ / _ \ '__|
   | || | | | '_ \ / _ \ '__|   | | | |_| | | | |  __/ |
   |_| \__,_|_| |_|\___|_|      |_|  \__,_|_| |_|\___|_|

          Accessible Guitar Tuner CLI
`
	fmt.Println(banner)
}

func handleListen() {
	log := logger.GetLogger()

	listenCmd := flag.NewFlagSet("listen", flag.ExitOnError)
	sessionLabel := listenCmd.String("session", "", "Record detections under a practice session with this label")
	seconds := listenCmd.Int("seconds", 0, "Stop automatically after this many seconds (0 = run until interrupted)")
	listenCmd.Parse(os.Args[2:])

	fmt.Println("Initializing service...")
	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	if *sessionLabel != "" {
		sessionID, err := svc.StartSession(*sessionLabel)
		if err != nil {
			fmt.Printf("Failed to start session: %v\n", err)
			log.Errorf("StartSession failed: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Recording session %s (%q)\n", sessionID, *sessionLabel)
	}

	mic, err := capture.Open(capture.Config{
		SampleRate: sampleRate,
		Logger:     log,
	})
	if err != nil {
		fmt.Printf("Failed to open microphone: %v\n", err)
		fmt.Println("Check that an input device is connected and portaudio is installed.")
		log.Errorf("Capture open failed: %v", err)
		os.Exit(1)
	}
	defer mic.Close()

	if err := mic.Start(); err != nil {
		fmt.Printf("Failed to start capture: %v\n", err)
		log.Errorf("Capture start failed: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*seconds)*time.Second)
		defer cancel()
	}

	fmt.Println("Listening... play a single note. Press Ctrl-C to stop.")
	fmt.Println()

	// Announce changes only, so a screen reader is not flooded with the
	// same note four times a second.
	lastNote := ""
	heard := 0
	err = svc.Listen(ctx, mic, func(outcome models.Outcome) {
		if !outcome.Detected {
			if lastNote != "" {
				fmt.Println("  (quiet)")
				lastNote = ""
			}
			return
		}
		heard++
		if outcome.Note.Name == lastNote {
			return
		}
		lastNote = outcome.Note.Name
		fmt.Printf("  %-2s  %7.2f Hz   confidence %.1f\n",
			outcome.Note.Name, outcome.Note.Frequency, outcome.Confidence)
	})
	if err != nil && ctx.Err() == nil {
		fmt.Printf("Listen failed: %v\n", err)
		log.Errorf("Listen failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\nStopped. Heard %s detection window(s).\n", humanize.Comma(int64(heard)))
	if dropped := mic.Dropped(); dropped > 0 {
		log.Debugf("Dropped %d capture windows", dropped)
	}
}

func handleAnalyze() {
	log := logger.GetLogger()

	// Manually extract audio file and flags
	args := os.Args[2:]
	var audioPath string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && audioPath == "" {
			audioPath = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}

	analyzeCmd := flag.NewFlagSet("analyze", flag.ExitOnError)
	showSpectrum := analyzeCmd.Bool("spectrum", false, "Also print an FFT peak estimate for the whole file")
	analyzeCmd.Parse(flagArgs)

	if audioPath == "" {
		fmt.Println("Usage: tuner analyze <audio_file> [--spectrum]")
		os.Exit(1)
	}

	fmt.Println("Initializing service...")
	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("Analyzing %s...\n", audioPath)
	detections, err := svc.AnalyzeFile(ctx, audioPath)
	if err != nil {
		fmt.Printf("Failed to analyze file: %v\n", err)
		log.Errorf("AnalyzeFile failed: %v", err)
		os.Exit(1)
	}

	if len(detections) == 0 {
		fmt.Println("\nNo notes detected.")
	} else {
		fmt.Printf("\nDetected %d note window(s):\n\n", len(detections))
		lastNote := ""
		for _, d := range detections {
			marker := " "
			if d.Note != lastNote {
				marker = "*"
				lastNote = d.Note
			}
			fmt.Printf(" %s %6s   %-2s  %7.2f Hz   confidence %.1f\n",
				marker, formatOffset(d.OffsetMs), d.Note, d.Frequency, d.Confidence)
		}
		fmt.Println("\n(* marks where the detected note changes)")
	}

	if *showSpectrum {
		printSpectrum(audioPath)
	}
}

// printSpectrum reads the file once more and prints the strongest FFT bin as
// a second opinion next to the correlation sweep.
func printSpectrum(audioPath string) {
	log := logger.GetLogger()

	samples, rate, err := audio.ReadWAV(audioPath)
	if err != nil {
		fmt.Printf("Spectrum unavailable: %v\n", err)
		log.Warnf("Spectrum read failed: %v", err)
		return
	}

	freq, power := spectrum.Estimate(samples, rate)
	fmt.Printf("\nFFT peak over %s samples: %.2f Hz (power %.3g)\n",
		humanize.Comma(int64(len(samples))), freq, power)
}

func handleSessions() {
	log := logger.GetLogger()

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	sessions, err := svc.Sessions()
	if err != nil {
		fmt.Printf("Failed to list sessions: %v\n", err)
		log.Errorf("Sessions failed: %v", err)
		os.Exit(1)
	}

	if len(sessions) == 0 {
		fmt.Println("\nNo practice sessions recorded.")
		log.Infof("No sessions in database")
		return
	}

	fmt.Printf("\nFound %d session(s):\n\n", len(sessions))
	for i, s := range sessions {
		fmt.Printf("%d. %q started %s\n", i+1, s.Label, humanize.Time(s.StartedAt))
		fmt.Printf("   ID: %s\n", s.ID)
		if s.EndedAt.IsZero() {
			fmt.Println("   Still open")
		} else {
			fmt.Printf("   Duration: %s\n", s.EndedAt.Sub(s.StartedAt).Round(time.Second))
		}
		fmt.Println()
	}
	log.Infof("Listed %d sessions", len(sessions))
}

func handleDetections() {
	log := logger.GetLogger()

	if len(os.Args) < 3 {
		fmt.Println("Usage: tuner detections <session_id>")
		os.Exit(1)
	}
	sessionID := os.Args[2]

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	detections, err := svc.Detections(sessionID)
	if err != nil {
		fmt.Printf("Failed to load detections: %v\n", err)
		log.Errorf("Detections failed: %v", err)
		os.Exit(1)
	}

	if len(detections) == 0 {
		fmt.Printf("\nNo detections recorded for session %s\n", sessionID)
		return
	}

	fmt.Printf("\n%d detection(s) in session %s:\n\n", len(detections), sessionID)
	for _, d := range detections {
		fmt.Printf("  %6s   %-2s  %7.2f Hz   confidence %.1f\n",
			formatOffset(d.OffsetMs), d.Note, d.Frequency, d.Confidence)
	}
	log.Infof("Listed %d detections for session %s", len(detections), sessionID)
}

func handleDelete() {
	log := logger.GetLogger()

	if len(os.Args) < 3 {
		fmt.Println("Usage: tuner delete <session_id>")
		os.Exit(1)
	}
	sessionID := os.Args[2]

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	// Show what is about to disappear
	sessions, err := svc.Sessions()
	if err != nil {
		fmt.Printf("Failed to look up session: %v\n", err)
		log.Errorf("Sessions failed: %v", err)
		os.Exit(1)
	}
	var found *models.Session
	for i := range sessions {
		if sessions[i].ID == sessionID {
			found = &sessions[i]
			break
		}
	}
	if found == nil {
		fmt.Printf("Session not found: %s\n", sessionID)
		log.Warnf("Session %s not found", sessionID)
		os.Exit(1)
	}

	if err := svc.DeleteSession(sessionID); err != nil {
		fmt.Printf("Failed to delete session: %v\n", err)
		log.Errorf("DeleteSession failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\nDeleted session %s (%q, started %s)\n",
		found.ID, found.Label, humanize.Time(found.StartedAt))
	log.Infof("Deleted session %s (%q)", found.ID, found.Label)
}

func handleTone() {
	log := logger.GetLogger()

	// Manually extract the note argument and flags
	args := os.Args[2:]
	var noteArg string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && noteArg == "" {
			noteArg = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}

	toneCmd := flag.NewFlagSet("tone", flag.ExitOnError)
	seconds := toneCmd.Float64("seconds", 2, "How long to sound the tone")
	octave := toneCmd.Int("octave", 1, "Which occurrence of the note to play, counting up from the lowest")
	toneCmd.Parse(flagArgs)

	if noteArg == "" {
		fmt.Println("Usage: tuner tone <note|frequency> [--seconds 2] [--octave 1]")
		fmt.Println("Examples: tuner tone A --octave 2")
		fmt.Println("          tuner tone 110")
		os.Exit(1)
	}

	freq, err := resolveTone(noteArg, *octave)
	if err != nil {
		fmt.Printf("Cannot resolve tone: %v\n", err)
		log.Errorf("Tone resolution failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Playing %.2f Hz for %.1fs...\n", freq, *seconds)
	player := tone.NewPlayer()
	if err := player.Play(freq, time.Duration(*seconds*float64(time.Second))); err != nil {
		fmt.Printf("Playback failed: %v\n", err)
		log.Errorf("Tone playback failed: %v", err)
		os.Exit(1)
	}
	fmt.Println("Done.")
}

// resolveTone turns a note name or a literal frequency into Hz. Note names
// match the on-pitch candidates only; occurrence selects among octaves.
func resolveTone(arg string, occurrence int) (float64, error) {
	if hz, err := strconv.ParseFloat(arg, 64); err == nil {
		if hz <= 0 {
			return 0, fmt.Errorf("frequency must be positive, got %g", hz)
		}
		return hz, nil
	}

	table, err := pitch.BuildTable(pitch.DefaultBaseFrequency, pitch.DefaultSemitoneCount, pitch.DefaultMicroStep)
	if err != nil {
		return 0, err
	}

	var matches []float64
	for i, c := range table {
		if i%pitch.VariantsPerSemitone != 1 { // on-pitch variants only
			continue
		}
		if strings.EqualFold(c.Name, arg) {
			matches = append(matches, c.Frequency)
		}
	}
	if len(matches) == 0 {
		return 0, fmt.Errorf("unknown note %q (use names like E, A, C#)", arg)
	}
	if occurrence < 1 || occurrence > len(matches) {
		return 0, fmt.Errorf("note %q occurs %d time(s); --octave must be between 1 and %d",
			arg, len(matches), len(matches))
	}
	return matches[occurrence-1], nil
}

// handleNotes prints the detectable range so a player knows which strings the
// tuner can hear.
func handleNotes() {
	log := logger.GetLogger()

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	candidates := svc.Candidates()
	fmt.Printf("\n%d candidates from %.2f Hz to %.2f Hz:\n\n",
		len(candidates), candidates[0].Frequency, candidates[len(candidates)-1].Frequency)
	for i, c := range candidates {
		if i%pitch.VariantsPerSemitone != 1 {
			continue
		}
		fmt.Printf("  %-2s  %7.2f Hz\n", c.Name, c.Frequency)
	}
}

func formatOffset(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%04.1f", int(d.Minutes()), d.Seconds()-60*float64(int(d.Minutes())))
}

func printUsage() {
	fmt.Println("Accessible Guitar Tuner - monophonic pitch detection CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>         Path to SQLite database (env: TUNER_DB_PATH, default: tuner.sqlite3)")
	fmt.Println("  --temp <dir>        Temporary directory for audio conversion (env: TUNER_TEMP_DIR, default: /tmp)")
	fmt.Println("  --rate <hz>         Capture sample rate (default: 44100)")
	fmt.Println("  --threshold <x>     Confidence gate, higher is stricter (default: 10)")
	fmt.Println("\nUsage:")
	fmt.Println("  tuner [global-options] listen [--session <label>] [--seconds <n>]")
	fmt.Println("  tuner [global-options] analyze <audio_file> [--spectrum]")
	fmt.Println("  tuner [global-options] sessions")
	fmt.Println("  tuner [global-options] detections <session_id>")
	fmt.Println("  tuner [global-options] delete <session_id>")
	fmt.Println("  tuner [global-options] tone <note|frequency> [--seconds <s>] [--octave <n>]")
	fmt.Println("  tuner [global-options] notes")
	fmt.Println("\nExamples:")
	fmt.Println("  # Tune live from the microphone")
	fmt.Println("  tuner listen")
	fmt.Println()
	fmt.Println("  # Record a practice session while tuning")
	fmt.Println("  tuner listen --session \"morning warmup\" --seconds 120")
	fmt.Println()
	fmt.Println("  # Analyze a recording instead of the microphone")
	fmt.Println("  tuner analyze riff.mp3 --spectrum")
	fmt.Println()
	fmt.Println("  # Hear a reference A at the second octave in range")
	fmt.Println("  tuner tone A --octave 2")
}
