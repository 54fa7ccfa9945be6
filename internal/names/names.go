package names

import (
	"fmt"
	"math/rand/v2"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	NodeName     = "nodeName"
	NPCFirstName = "npcFirstName"
	NPCLastName  = "npcLastName"
	NPCName      = "npcName"
	CultureName  = "cultureName"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

type Person struct {
	First string `yaml:"first"`
	Last  string `yaml:"last"`
}

// Table supplies generated names and localized text. The zero value and a
// nil Table are both usable.
type Table struct {
	NodeNames    []string          `yaml:"node_names"`
	NPCNames     []Person          `yaml:"npc_names"`
	CultureNames []string          `yaml:"culture_names"`
	Text         map[string]string `yaml:"text"`
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading names: %w", err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("loading names: %w", err)
	}
	for i, name := range t.NPCNames {
		if strings.TrimSpace(name.First) == "" {
			return nil, fmt.Errorf("loading names: npc_names[%d] first name is required", i)
		}
	}
	return &t, nil
}

// Title returns the localized text for key, or key itself.
func (t *Table) Title(key string) string {
	if t == nil {
		return key
	}
	if text, ok := t.Text[key]; ok && text != "" {
		return text
	}
	return key
}

// ResolvePlaceholder produces a value for a placeholder token. The second
// result is false when the token is unknown or its list is empty.
func (t *Table) ResolvePlaceholder(token string, r *rand.Rand) (string, bool) {
	if t == nil {
		return "", false
	}
	switch token {
	case NodeName:
		return pick(t.NodeNames, r)
	case CultureName:
		return pick(t.CultureNames, r)
	case NPCFirstName, NPCLastName, NPCName:
		if len(t.NPCNames) == 0 {
			return "", false
		}
		return npcPart(t.NPCNames[r.IntN(len(t.NPCNames))], token)
	}
	return "", false
}

// Expand replaces every {token} in template. One npc is drawn per call so
// first and last names agree; unknown tokens are left in place.
func (t *Table) Expand(template string, r *rand.Rand) string {
	if t == nil || !strings.Contains(template, "{") {
		return template
	}

	var npc *Person
	resolved := make(map[string]string)
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		token := match[1 : len(match)-1]
		if value, ok := resolved[token]; ok {
			return value
		}

		var value string
		var ok bool
		switch token {
		case NPCFirstName, NPCLastName, NPCName:
			if len(t.NPCNames) == 0 {
				return match
			}
			if npc == nil {
				npc = &t.NPCNames[r.IntN(len(t.NPCNames))]
			}
			value, ok = npcPart(*npc, token)
		default:
			value, ok = t.ResolvePlaceholder(token, r)
		}
		if !ok {
			return match
		}
		resolved[token] = value
		return value
	})
}

func npcPart(npc Person, token string) (string, bool) {
	switch token {
	case NPCFirstName:
		return npc.First, true
	case NPCLastName:
		return npc.Last, npc.Last != ""
	}
	return strings.TrimSpace(npc.First + " " + npc.Last), true
}

func pick(list []string, r *rand.Rand) (string, bool) {
	if len(list) == 0 {
		return "", false
	}
	return list[r.IntN(len(list))], true
}
