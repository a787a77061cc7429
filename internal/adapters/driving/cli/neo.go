package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brightvale-health/remitdesk/internal/core/domain"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driving"
)

var neoCmd = &cobra.Command{
	Use:   "neo",
	Short: "Collect and query near-earth-object data",
}

var neoCollectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch feed windows into the local database",
	RunE:  runNeoCollect,
}

var neoQueriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "List the available canned queries",
	RunE:  runNeoQueries,
}

var neoQueryCmd = &cobra.Command{
	Use:   "query [name]",
	Short: "Run a canned query",
	Args:  cobra.ExactArgs(1),
	RunE:  runNeoQuery,
}

var neoFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Query close approaches with range filters",
	RunE:  runNeoFilter,
}

var neoPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all stored records",
	RunE:  runNeoPurge,
}

// Collect flags.
var (
	neoAPIKey     string
	neoStart      string
	neoPeriods    int
	neoMaxRecords int
)

// Filter flags.
var (
	filterDateFrom    string
	filterDateTo      string
	filterMaxAU       float64
	filterMaxLunar    float64
	filterMinVelocity float64
	filterMaxVelocity float64
	filterMinDiameter float64
	filterMaxDiameter float64
	filterHazardous   bool
	filterLimit       int
)

var purgeConfirm bool

func init() {
	neoCollectCmd.Flags().StringVar(&neoAPIKey, "api-key", "", "Feed API key (defaults to neo.api_key from config)")
	neoCollectCmd.Flags().StringVar(&neoStart, "start", "", "First window start date, YYYY-MM-DD (defaults to today)")
	neoCollectCmd.Flags().IntVar(&neoPeriods, "periods", 1, "Number of 7-day windows to fetch")
	neoCollectCmd.Flags().IntVar(&neoMaxRecords, "max-records", 0, "Stop after this many asteroids (0 = no cap)")

	neoFilterCmd.Flags().StringVar(&filterDateFrom, "from", "", "Approach date lower bound, YYYY-MM-DD")
	neoFilterCmd.Flags().StringVar(&filterDateTo, "to", "", "Approach date upper bound, YYYY-MM-DD")
	neoFilterCmd.Flags().Float64Var(&filterMaxAU, "max-au", 0, "Maximum miss distance in AU")
	neoFilterCmd.Flags().Float64Var(&filterMaxLunar, "max-lunar", 0, "Maximum miss distance in lunar distances")
	neoFilterCmd.Flags().Float64Var(&filterMinVelocity, "min-velocity", 0, "Minimum relative velocity, km/h")
	neoFilterCmd.Flags().Float64Var(&filterMaxVelocity, "max-velocity", 0, "Maximum relative velocity, km/h")
	neoFilterCmd.Flags().Float64Var(&filterMinDiameter, "min-diameter", 0, "Minimum estimated max diameter, km")
	neoFilterCmd.Flags().Float64Var(&filterMaxDiameter, "max-diameter", 0, "Maximum estimated max diameter, km")
	neoFilterCmd.Flags().BoolVar(&filterHazardous, "hazardous", false, "Only potentially hazardous asteroids")
	neoFilterCmd.Flags().IntVar(&filterLimit, "limit", 0, "Maximum rows to return")

	neoPurgeCmd.Flags().BoolVar(&purgeConfirm, "confirm", false, "Actually delete; refused otherwise")

	neoCmd.AddCommand(neoCollectCmd)
	neoCmd.AddCommand(neoQueriesCmd)
	neoCmd.AddCommand(neoQueryCmd)
	neoCmd.AddCommand(neoFilterCmd)
	neoCmd.AddCommand(neoPurgeCmd)
	rootCmd.AddCommand(neoCmd)
}

func runNeoCollect(cmd *cobra.Command, _ []string) error {
	if collector == nil {
		return errors.New("collector not configured")
	}

	apiKey := neoAPIKey
	if apiKey == "" && configStore != nil {
		apiKey = configStore.GetString("neo.api_key")
	}
	if apiKey == "" {
		return errors.New("no API key: pass --api-key or set neo.api_key in the config")
	}

	result, err := collector.Collect(context.Background(), driving.CollectSpec{
		APIKey:     apiKey,
		Start:      neoStart,
		Periods:    neoPeriods,
		MaxRecords: neoMaxRecords,
	})
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	cmd.Printf("Fetched %d window(s): %d asteroid(s) (%d new), %d approach(es) stored.\n",
		result.WindowsFetched, result.AsteroidsFetched, result.AsteroidsInserted, result.ApproachesStored)

	if neoStore != nil {
		asteroids, approaches, err := neoStore.Counts(context.Background())
		if err == nil {
			cmd.Printf("Database now holds %d asteroid(s) and %d approach(es).\n", asteroids, approaches)
		}
	}
	return nil
}

func runNeoQueries(cmd *cobra.Command, _ []string) error {
	if neoStore == nil {
		return errors.New("store not configured")
	}
	for _, name := range neoStore.QueryNames() {
		cmd.Println(name)
	}
	return nil
}

func runNeoQuery(cmd *cobra.Command, args []string) error {
	if neoStore == nil {
		return errors.New("store not configured")
	}
	rs, err := neoStore.Query(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	printResultSet(cmd, rs)
	return nil
}

func runNeoFilter(cmd *cobra.Command, _ []string) error {
	if neoStore == nil {
		return errors.New("store not configured")
	}

	f := domain.NEOFilter{
		DateFrom:      filterDateFrom,
		DateTo:        filterDateTo,
		HazardousOnly: filterHazardous,
		Limit:         filterLimit,
	}
	if cmd.Flags().Changed("max-au") {
		f.MaxAstronomical = &filterMaxAU
	}
	if cmd.Flags().Changed("max-lunar") {
		f.MaxLunar = &filterMaxLunar
	}
	if cmd.Flags().Changed("min-velocity") {
		f.MinVelocityKMPH = &filterMinVelocity
	}
	if cmd.Flags().Changed("max-velocity") {
		f.MaxVelocityKMPH = &filterMaxVelocity
	}
	if cmd.Flags().Changed("min-diameter") {
		f.MinDiameterKM = &filterMinDiameter
	}
	if cmd.Flags().Changed("max-diameter") {
		f.MaxDiameterKM = &filterMaxDiameter
	}

	rs, err := neoStore.Filter(context.Background(), f)
	if err != nil {
		return fmt.Errorf("filter failed: %w", err)
	}
	printResultSet(cmd, rs)
	return nil
}

func runNeoPurge(cmd *cobra.Command, _ []string) error {
	if neoStore == nil {
		return errors.New("store not configured")
	}
	if !purgeConfirm {
		return errors.New("refusing to purge without --confirm")
	}
	if err := neoStore.Purge(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	cmd.Println("All records deleted.")
	return nil
}

func printResultSet(cmd *cobra.Command, rs *domain.ResultSet) {
	cmd.Println(strings.Join(rs.Columns, "\t"))
	for _, row := range rs.Rows {
		cmd.Println(strings.Join(row, "\t"))
	}
	cmd.Printf("(%d row(s))\n", len(rs.Rows))
}
