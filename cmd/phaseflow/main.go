package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/arenalabs/phaseflow/internal/catalog"
	"github.com/arenalabs/phaseflow/internal/events"
	"github.com/arenalabs/phaseflow/internal/facts"
	"github.com/arenalabs/phaseflow/internal/model"
	"github.com/arenalabs/phaseflow/internal/service"
	"github.com/arenalabs/phaseflow/internal/yamlio"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "advance":
		runAdvance(os.Args[2:])
	case "catalog":
		runCatalog(os.Args[2:])
	case "scaffold":
		runScaffold(os.Args[2:])
	case "version":
		fmt.Printf("phaseflow %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`phaseflow - challenge phase advancement engine

usage: phaseflow <command> [options]

commands:
  advance <phase-file> --phase <name> --op <open|close> [options]
      attempt one phase advancement and print the result as JSON
      options:
        --write                  persist the updated phases back to the file
        --catalog <path>         rule catalog file or directory (default: embedded)
        --audit <path>           append the outcome to a JSONL audit trail
        --registrants <n>        registrant count reported by the fact source
        --submissions <n>        submission count reported by the fact source
        --all-reviewed           report all submissions as reviewed
        --has-unreviewed         report active unreviewed submissions
        --appeals-resolved       report all appeals as resolved
        --timeout <duration>     fact fetch timeout (default 10s)
        --log-level <level>      debug|info|warn|error (default info)
  catalog validate [path]        validate a catalog file/directory (default: embedded)
  scaffold <out-file> --challenge-id <id> [--start <RFC3339>]
                                 write a fresh default timeline file
  version                        print version`)
}

func runAdvance(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: phaseflow advance <phase-file> --phase <name> --op <open|close> [options]")
		os.Exit(1)
	}

	path := args[0]
	rest := args[1:]

	var phaseName, opStr, catalogPath, auditPath string
	var write, allReviewed, hasUnreviewed, appealsResolved bool
	var registrants, submissions int
	timeout := 10 * time.Second
	logLevel := "info"

	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--phase":
			phaseName = stringArg(rest, &i)
		case "--op":
			opStr = stringArg(rest, &i)
		case "--catalog":
			catalogPath = stringArg(rest, &i)
		case "--audit":
			auditPath = stringArg(rest, &i)
		case "--write":
			write = true
		case "--all-reviewed":
			allReviewed = true
		case "--has-unreviewed":
			hasUnreviewed = true
		case "--appeals-resolved":
			appealsResolved = true
		case "--registrants":
			registrants = intArg(rest, &i)
		case "--submissions":
			submissions = intArg(rest, &i)
		case "--timeout":
			d, err := time.ParseDuration(stringArg(rest, &i))
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --timeout: %v\n", err)
				os.Exit(1)
			}
			timeout = d
		case "--log-level":
			logLevel = stringArg(rest, &i)
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", rest[i])
			os.Exit(1)
		}
	}

	if phaseName == "" || opStr == "" {
		fmt.Fprintln(os.Stderr, "--phase and --op are required")
		os.Exit(1)
	}
	op, err := model.ParseOperation(opStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "advance: %v\n", err)
		os.Exit(1)
	}

	file, err := yamlio.ReadPhaseFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "advance: %v\n", err)
		os.Exit(1)
	}

	cat, err := loadCatalog(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "advance: %v\n", err)
		os.Exit(1)
	}

	svc := facts.StaticServices{
		Registrants: registrants,
		Submissions: submissions,
		Review: facts.ReviewStatus{
			AllReviewed:   allReviewed,
			HasUnreviewed: hasUnreviewed,
		},
		Appeals: facts.AppealsStatus{AllResolved: appealsResolved},
	}

	logger := log.New(os.Stderr, "phaseflow ", log.LstdFlags)
	advancer := service.NewAdvancer(cat, svc, model.SystemClock(), logger, service.ParseLogLevel(logLevel))

	if auditPath != "" {
		audit, err := events.NewAuditLogger(auditPath, events.DefaultMaxLogSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "advance: %v\n", err)
			os.Exit(1)
		}
		defer audit.Close()

		bus := events.NewBus(16)
		defer bus.Close()
		record := func(e events.Event) {
			if err := audit.Record(e); err != nil {
				logger.Printf("audit_error error=%v", err)
			}
		}
		bus.Subscribe(events.EventPhaseOpened, record)
		bus.Subscribe(events.EventPhaseClosed, record)
		bus.Subscribe(events.EventAdvancementRejected, record)
		advancer.AttachBus(bus)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := advancer.Advance(ctx, file.ChallengeID, file.Phases, op, phaseName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "advance: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "advance: encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if result.Success && write {
		file.Phases = result.UpdatedPhases
		if err := yamlio.WritePhaseFile(path, file); err != nil {
			fmt.Fprintf(os.Stderr, "advance: %v\n", err)
			os.Exit(1)
		}
	}
}

func runCatalog(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: phaseflow catalog validate [path]")
		os.Exit(1)
	}
	switch args[0] {
	case "validate":
		var path string
		if len(args) > 1 {
			path = args[1]
		}
		cat, err := loadCatalog(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("catalog ok: version=%s rules=%d\n", cat.Version(), cat.RuleCount())
	default:
		fmt.Fprintf(os.Stderr, "unknown catalog subcommand: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "usage: phaseflow catalog validate [path]")
		os.Exit(1)
	}
}

func runScaffold(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: phaseflow scaffold <out-file> --challenge-id <id> [--start <RFC3339>]")
		os.Exit(1)
	}

	path := args[0]
	rest := args[1:]

	var challengeID string
	start := time.Now().UTC().Truncate(time.Minute)

	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--challenge-id":
			challengeID = stringArg(rest, &i)
		case "--start":
			t, err := time.Parse(time.RFC3339, stringArg(rest, &i))
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --start: %v\n", err)
				os.Exit(1)
			}
			start = t
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\n", rest[i])
			os.Exit(1)
		}
	}

	if challengeID == "" {
		fmt.Fprintln(os.Stderr, "--challenge-id is required")
		os.Exit(1)
	}

	file := scaffoldTimeline(challengeID, start)
	if err := yamlio.WritePhaseFile(path, file); err != nil {
		fmt.Fprintf(os.Stderr, "scaffold: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d phases)\n", path, len(file.Phases))
}

// scaffoldTimeline builds a default single-chain timeline: each phase starts
// when its predecessor is scheduled to end.
func scaffoldTimeline(challengeID string, start time.Time) *model.PhaseFile {
	chain := []struct {
		phaseType model.PhaseType
		duration  time.Duration
	}{
		{model.PhaseRegistration, 5 * 24 * time.Hour},
		{model.PhaseSubmission, 5 * 24 * time.Hour},
		{model.PhaseReview, 2 * 24 * time.Hour},
		{model.PhaseAppeals, 24 * time.Hour},
		{model.PhaseAppealsResponse, 24 * time.Hour},
	}

	file := &model.PhaseFile{
		SchemaVersion: model.PhaseFileSchemaVersion,
		ChallengeID:   challengeID,
	}

	cursor := start
	var prevID *string
	for _, step := range chain {
		scheduledStart := cursor
		scheduledEnd := cursor.Add(step.duration)
		phase := model.PhaseInstance{
			PhaseID:            model.NewPhaseID(),
			Name:               string(step.phaseType),
			DurationSeconds:    int64(step.duration / time.Second),
			ScheduledStartDate: &scheduledStart,
			ScheduledEndDate:   &scheduledEnd,
			PredecessorID:      prevID,
		}
		file.Phases = append(file.Phases, phase)
		id := phase.PhaseID
		prevID = &id
		cursor = scheduledEnd
	}
	return file
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return catalog.LoadDir(path)
	}
	return catalog.LoadFile(path)
}

func stringArg(args []string, i *int) string {
	if *i+1 >= len(args) {
		fmt.Fprintf(os.Stderr, "%s requires a value\n", args[*i])
		os.Exit(1)
	}
	*i++
	return args[*i]
}

func intArg(args []string, i *int) int {
	v := stringArg(args, i)
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid number %q\n", v)
		os.Exit(1)
	}
	return n
}
