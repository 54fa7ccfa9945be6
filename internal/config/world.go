package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// WorldDefinition is the authored starting state read from world.yaml.
type WorldDefinition struct {
	Version   int                  `yaml:"version"`
	Resources map[string]int       `yaml:"resources"`
	Clock     ClockDefinition      `yaml:"clock"`
	Locations []LocationDefinition `yaml:"locations"`
	Agents    []AgentDefinition    `yaml:"agents"`

	locationIndex map[int]*LocationDefinition
}

type ClockDefinition struct {
	Phase   string `yaml:"phase"`
	Weather string `yaml:"weather"`
}

type LocationDefinition struct {
	ID           int                `yaml:"id"`
	Name         string             `yaml:"name"`
	Stats        map[string]float64 `yaml:"stats"`
	Connections  []int              `yaml:"connections"`
	Visited      bool               `yaml:"visited"`
	UpgradeLevel int                `yaml:"upgrade_level"`
}

type AgentDefinition struct {
	ID       int                `yaml:"id"`
	Name     string             `yaml:"name"`
	Location int                `yaml:"location"`
	Traits   []string           `yaml:"traits"`
	Stats    map[string]float64 `yaml:"stats"`
}

func LoadWorld(path string) (*WorldDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}

	var def WorldDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}

	if err := validateWorld(&def); err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}

	def.locationIndex = make(map[int]*LocationDefinition, len(def.Locations))
	for i := range def.Locations {
		location := &def.Locations[i]
		def.locationIndex[location.ID] = location
	}

	return &def, nil
}

func validateWorld(def *WorldDefinition) error {
	if def.Version != 1 {
		return fmt.Errorf("unsupported version: %d", def.Version)
	}
	if len(def.Locations) == 0 {
		return fmt.Errorf("at least one location is required")
	}

	ids := make(map[int]struct{}, len(def.Locations))
	for i, location := range def.Locations {
		if strings.TrimSpace(location.Name) == "" {
			return fmt.Errorf("location %d name is required", i)
		}
		if _, exists := ids[location.ID]; exists {
			return fmt.Errorf("duplicate location id: %d", location.ID)
		}
		ids[location.ID] = struct{}{}
		if location.UpgradeLevel < 0 {
			return fmt.Errorf("location %s upgrade_level must not be negative", location.Name)
		}
	}

	for _, location := range def.Locations {
		for _, target := range location.Connections {
			if target == location.ID {
				return fmt.Errorf("location %s connects to itself", location.Name)
			}
			if _, ok := ids[target]; !ok {
				return fmt.Errorf("location %s connects to unknown location: %d", location.Name, target)
			}
		}
	}

	agentIDs := make(map[int]struct{}, len(def.Agents))
	for i, agent := range def.Agents {
		if strings.TrimSpace(agent.Name) == "" {
			return fmt.Errorf("agent %d name is required", i)
		}
		if _, exists := agentIDs[agent.ID]; exists {
			return fmt.Errorf("duplicate agent id: %d", agent.ID)
		}
		agentIDs[agent.ID] = struct{}{}
		if _, ok := ids[agent.Location]; !ok {
			return fmt.Errorf("agent %s placed at unknown location: %d", agent.Name, agent.Location)
		}
	}

	return nil
}

func (d *WorldDefinition) LocationByID(id int) (*LocationDefinition, bool) {
	if d == nil {
		return nil, false
	}
	location, ok := d.locationIndex[id]
	return location, ok
}
