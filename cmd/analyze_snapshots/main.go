// Command analyze_snapshots runs the analysis over every archived CSV snapshot
// in a directory and prints one summary row per file, oldest first.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hujadis/geraship/internal/analytics"
	"github.com/hujadis/geraship/internal/domain"
	"github.com/hujadis/geraship/internal/utils"
)

func main() {
	dir := flag.String("dir", "data/snapshots", "directory holding snapshot CSV files")
	prefix := flag.String("prefix", "positions_", "snapshot file name prefix")
	nowFlag := flag.String("now", "", "RFC3339 reference time (default: file modification time)")
	flag.Parse()

	var fixedNow time.Time
	if *nowFlag != "" {
		var err error
		if fixedNow, err = time.Parse(time.RFC3339, *nowFlag); err != nil {
			log.Fatalf("Invalid -now: %v", err)
		}
	}

	files, err := findSnapshotFiles(*dir, *prefix)
	if err != nil {
		log.Fatalf("Error finding snapshot files: %v", err)
	}
	if len(files) == 0 {
		log.Printf("No snapshot files found in %s. Run fetch_positions -out csv -archive first.", *dir)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "File\tPositions\tWallets\tAssets\tTotalPnL\tWinRate\tMaxDD\tRisk\tSentiment\tTopCall\t")

	for _, file := range files {
		positions, err := utils.ReadPositionsFromCSV(file)
		if err != nil {
			log.Printf("Error reading positions from %s: %v", file, err)
			continue
		}

		now := fixedNow
		if now.IsZero() {
			now = modTime(file)
		}
		opts := analytics.Options{Now: now, IncludeRecommendations: true}
		r := analytics.Analyze(positions, opts)
		perf := r.Portfolio.Performance

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.1f\t%s\t%s\t\n",
			filepath.Base(file),
			r.PositionCount,
			len(r.Wallets),
			len(r.Assets),
			perf.TotalPnL,
			perf.WinRate,
			perf.MaxDrawdown,
			r.Portfolio.Risk.Score,
			r.Portfolio.Sentiment,
			topCall(r),
		)
	}
	w.Flush()
}

// topCall formats the highest-confidence directional call, or "-" when every
// asset is a HOLD.
func topCall(r analytics.Report) string {
	if r.Recommendations == nil {
		return "-"
	}
	for _, rec := range r.Recommendations.AI {
		if rec.Action != domain.ActionHold {
			return fmt.Sprintf("%s %s (%d)", rec.Action, rec.Asset, rec.Confidence)
		}
	}
	return "-"
}

// findSnapshotFiles returns the matching CSV files sorted by name, which is
// chronological for timestamped snapshot names.
func findSnapshotFiles(dir, prefix string) ([]string, error) {
	var files []string

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) && strings.HasSuffix(entry.Name(), ".csv") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Now()
	}
	return info.ModTime()
}
