// Command rct-registry-csv writes one CSV file per object group, listing
// every object descriptor in the built-in registry. Useful for generating
// reference documentation for the object model.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rctpower/rctclient"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", ".", "directory to write objectgroup_*.csv files into")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	byGroup := map[rctclient.ObjectGroup][]rctclient.ObjectDescriptor{}
	for _, desc := range rctclient.DefaultRegistry.All() {
		byGroup[desc.Group] = append(byGroup[desc.Group], desc)
	}

	groups := make([]rctclient.ObjectGroup, 0, len(byGroup))
	for group := range byGroup {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	for _, group := range groups {
		if err := writeGroupCSV(outDir, group, byGroup[group]); err != nil {
			logger.Error("failed to write group CSV", "group", group, "err", err)
			os.Exit(1)
		}
	}
	logger.Info("wrote registry CSV files", "groups", len(groups), "dir", outDir)
}

func writeGroupCSV(outDir string, group rctclient.ObjectGroup, descs []rctclient.ObjectDescriptor) error {
	name := fmt.Sprintf("objectgroup_%s.csv", strings.ToLower(group.String()))
	f, err := os.Create(filepath.Join(outDir, name)) // #nosec G304
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"OID", "Request Type", "Response Type", "Unit", "Name", "Description"}); err != nil {
		return err
	}
	for _, desc := range descs {
		row := []string{
			fmt.Sprintf("0x%X", desc.ID),
			desc.RequestDataType.String(),
			desc.EffectiveResponseDataType().String(),
			desc.Unit,
			desc.Name,
			desc.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
