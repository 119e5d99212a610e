package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"liftlink-backend/lib/browser"
	"liftlink-backend/lib/configutil"
	"liftlink-backend/lib/scrapers/profile"
	"liftlink-backend/lib/scrapers/rankings"
	"liftlink-backend/lib/serviceutil"
	"liftlink-backend/lib/sqliteutil"
	"liftlink-backend/lib/timezone"
	"liftlink-backend/services/registry"
	registrydb "liftlink-backend/services/registry/db"
	"liftlink-backend/services/resolver"
	"liftlink-backend/services/results"
	resultsdb "liftlink-backend/services/results/db"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

type Config struct {
	BaseUrl           string `json:"baseUrl"`
	Headless          bool   `json:"headless"`
	MinRequestDelayMs int    `json:"minRequestDelayMs"`
}

// meetFile is the on-disk shape of one scraped meet.
type meetFile struct {
	Meet struct {
		Name string `json:"name"`
		Date string `json:"date"`
	} `json:"meet"`
	Results []struct {
		Name         string  `json:"name"`
		Gender       string  `json:"gender"`
		AgeCategory  string  `json:"ageCategory"`
		WeightClass  string  `json:"weightClass"`
		BodyweightKg float64 `json:"bodyweightKg"`
		TotalKg      float64 `json:"totalKg"`
		MemberId     *int64  `json:"memberId"`
	} `json:"results"`
}

var registryDb *string
var resultsDb *string

func init() {
	registryDb = resolveCmd.Flags().String("registry-db", "registry.db", "The athlete registry database.")
	resultsDb = resolveCmd.Flags().String("results-db", "results.db", "The database to write resolved results to.")
	rootCmd.AddCommand(resolveCmd)
}

func readMeetFile(path string) (resolver.MeetReference, []resolver.ScrapedResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return resolver.MeetReference{}, nil, err
	}
	var file meetFile
	err = json.Unmarshal(raw, &file)
	if err != nil {
		return resolver.MeetReference{}, nil, err
	}

	date, err := time.ParseInLocation("2006-01-02", file.Meet.Date, timezone.Location)
	if err != nil {
		return resolver.MeetReference{}, nil, fmt.Errorf("bad meet date %q: %w", file.Meet.Date, err)
	}
	meet := resolver.MeetReference{
		Name: file.Meet.Name,
		Date: date,
	}

	rows := make([]resolver.ScrapedResult, len(file.Results))
	for i, r := range file.Results {
		rows[i] = resolver.ScrapedResult{
			RawName:             r.Name,
			Meet:                meet,
			Gender:              r.Gender,
			AgeCategory:         r.AgeCategory,
			WeightClassDeclared: r.WeightClass,
			BodyWeightKg:        r.BodyweightKg,
			TotalKg:             r.TotalKg,
		}
		if r.MemberId != nil {
			rows[i].StableIDHint = *r.MemberId
			rows[i].HasStableIDHint = true
		}
	}
	return meet, rows, nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <path/to/meet.json>",
	Short: "Resolves one scraped meet's results against the registry and records them.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		meet, rows, err := readMeetFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read meet file", err)
		}
		slog.Info("resolving meet", "meet", meet.Name, "date", meet.Date.Format("2006-01-02"), "results", len(rows))

		registryDatabase, err := sqliteutil.OpenDB(registrydb.Schema, *registryDb)
		if err != nil {
			serviceutil.Fatal("failed to open registry db", err)
		}
		defer registryDatabase.Close()
		resultsDatabase, err := sqliteutil.OpenDB(resultsdb.Schema, *resultsDb)
		if err != nil {
			serviceutil.Fatal("failed to open results db", err)
		}
		defer resultsDatabase.Close()

		b := browser.New(cmd.Context(), browser.Options{
			Headless:        cfg.Headless,
			MinRequestDelay: time.Duration(cfg.MinRequestDelayMs) * time.Millisecond,
		})
		defer b.Close()

		profiles, err := profile.NewClient(profile.ClientOptions{
			BaseUrl:  cfg.BaseUrl,
			Throttle: b.Throttle(),
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize profile client", err)
		}

		engine := resolver.NewEngine(
			registry.NewService(registryDatabase),
			rankings.ChromeSource{Browser: b, BaseURL: cfg.BaseUrl},
			profiles,
		)
		store := results.NewStore(resultsDatabase)

		t1 := time.Now()
		for _, row := range rows {
			decision, err := engine.Resolve(cmd.Context(), row)
			if err != nil {
				serviceutil.Fatal("resolution aborted", err)
			}
			slog.Info("resolved",
				"name", row.RawName,
				"athlete_id", decision.RegistryID,
				"strategy", decision.Strategy,
				"candidates", decision.CandidatesConsidered,
			)
			err = store.Record(cmd.Context(), row, decision)
			if err != nil {
				serviceutil.Fatal("failed to record result", err)
			}
		}
		t2 := time.Now()

		slog.Info("resolution time", "seconds", t2.Sub(t1).Seconds())
	},
}
