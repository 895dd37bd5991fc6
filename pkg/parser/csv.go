// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

// CSVPlugin uses encoding/csv rather than a third-party library: nothing in
// the retrieval pack depends on a CSV package, and the standard library
// reader/writer already implements RFC 4180 quoting exactly as required.
type CSVPlugin struct{}

func NewCSVPlugin() *CSVPlugin { return &CSVPlugin{} }

func (p *CSVPlugin) ID() string           { return "csv" }
func (p *CSVPlugin) Extensions() []string { return []string{"csv", "tsv"} }

func (p *CSVPlugin) ExtractEntities(content []byte, path string) ([]entity.Entity, error) {
	path = entity.NormalizePath(path)
	if strings.TrimSpace(string(content)) == "" {
		return nil, nil
	}

	sep := ','
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		sep = '\t'
	}

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.Comma = sep
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil
	}

	var header []string
	var out []entity.Entity
	rowNum := 0
	lineNum := 0

	for _, rec := range records {
		lineNum++
		if isBlankRecord(rec) {
			continue
		}
		if header == nil {
			header = rec
			continue
		}

		rowNum++
		name := fmt.Sprintf("row_%d", rowNum)
		if len(rec) > 0 && strings.TrimSpace(rec[0]) != "" {
			name = fmt.Sprintf("row[%s]", rec[0])
		}

		metadata := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				metadata[h] = rec[i]
			}
		}

		rowContent := csvLine(sep, rec)
		out = append(out, entity.Entity{
			ID:          entity.BuildID(path, entity.Row, name, ""),
			FilePath:    path,
			EntityType:  entity.Row,
			Name:        name,
			Content:     rowContent,
			ContentHash: entity.ContentHash(rowContent),
			StartLine:   lineNum,
			EndLine:     lineNum,
			Metadata:    metadata,
		})
	}

	return out, nil
}

func isBlankRecord(rec []string) bool {
	if len(rec) == 0 {
		return true
	}
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func csvLine(sep rune, rec []string) string {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	w.Comma = sep
	_ = w.Write(rec)
	w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}
