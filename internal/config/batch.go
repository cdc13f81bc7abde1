package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BatchEntry is one company listed in a batch file.
type BatchEntry struct {
	CompanyName string   `yaml:"company"`
	Website     string   `yaml:"website"`
	Country     string   `yaml:"country"`
	Industry    string   `yaml:"industry"`
	Methods     []string `yaml:"methods"`
	MaxPages    int      `yaml:"max_pages"`
	SearchDepth string   `yaml:"search_depth"`
}

// BatchFile is the YAML document accepted by the batch command.
//
//	defaults:
//	  methods: [website_scraping, whois_lookup]
//	companies:
//	  - company: Acme GmbH
//	    website: acme.de
//	    country: Germany
type BatchFile struct {
	Defaults  BatchEntry   `yaml:"defaults"`
	Companies []BatchEntry `yaml:"companies"`
}

// LoadBatchFile parses a batch file and fills entry fields from the defaults block.
func LoadBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return ParseBatch(data)
}

// ParseBatch decodes a batch document.
func ParseBatch(data []byte) (*BatchFile, error) {
	var file BatchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode batch file: %w", err)
	}
	if len(file.Companies) == 0 {
		return nil, errors.New("batch file lists no companies")
	}
	for i := range file.Companies {
		entry := &file.Companies[i]
		if entry.CompanyName == "" || entry.Website == "" {
			return nil, fmt.Errorf("batch entry %d: company and website are required", i+1)
		}
		if len(entry.Methods) == 0 {
			entry.Methods = file.Defaults.Methods
		}
		if entry.Country == "" {
			entry.Country = file.Defaults.Country
		}
		if entry.Industry == "" {
			entry.Industry = file.Defaults.Industry
		}
		if entry.MaxPages == 0 {
			entry.MaxPages = file.Defaults.MaxPages
		}
		if entry.SearchDepth == "" {
			entry.SearchDepth = file.Defaults.SearchDepth
		}
	}
	return &file, nil
}
