// Package seed loads a YAML catalog of topics, users and questions into the
// database.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/edukid/internal/account"
	"github.com/mind-engage/edukid/internal/learning"
	"github.com/mind-engage/edukid/internal/logger"
	"github.com/mind-engage/edukid/internal/schema"
)

//go:embed seed.yaml
var defaultCatalog []byte

// Catalog is the on-disk seed document.
type Catalog struct {
	// Sentinel is the username whose presence marks the catalog as already
	// applied. Defaults to the first listed user.
	Sentinel  string     `yaml:"sentinel"`
	Topics    []Topic    `yaml:"topics"`
	Users     []User     `yaml:"users"`
	Questions []Question `yaml:"questions"`
}

type Topic struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Stage       string `yaml:"stage"`
	SubjectID   int64  `yaml:"subjectId"`
	Description string `yaml:"description"`
}

type User struct {
	Username        string         `yaml:"username"`
	Password        string         `yaml:"password"`
	PicturePassword []string       `yaml:"picturePassword"`
	Role            string         `yaml:"role"`
	FirstName       string         `yaml:"firstName"`
	YearGroup       *int           `yaml:"yearGroup"`
	ClassID         *int64         `yaml:"classId"`
	Parent          string         `yaml:"parent"` // username of an earlier listed user
	AvatarConfig    map[string]any `yaml:"avatarConfig"`
}

type Question struct {
	Topic         string   `yaml:"topic"` // topic slug
	Content       string   `yaml:"content"`
	CorrectAnswer string   `yaml:"correctAnswer"`
	Distractors   []string `yaml:"distractors"`
	Difficulty    int      `yaml:"difficulty"`
	Type          string   `yaml:"type"`
	Explanation   *string  `yaml:"explanation"`
}

var catalogSchema = &schema.Schema{
	Name: "seed-catalog",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sentinel": map[string]any{"type": "string"},
			"topics": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":        map[string]any{"type": "string", "minLength": 1},
						"slug":        map[string]any{"type": "string", "pattern": "^[a-z0-9-]+$"},
						"stage":       map[string]any{"type": "string", "minLength": 1},
						"subjectId":   map[string]any{"type": "integer", "minimum": 1},
						"description": map[string]any{"type": "string"},
					},
					"required": []any{"name", "slug", "stage"},
				},
			},
			"users": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"username":        map[string]any{"type": "string", "minLength": 1},
						"password":        map[string]any{"type": "string"},
						"picturePassword": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
						"role":            map[string]any{"type": "string", "enum": []any{"student", "teacher", "parent"}},
						"firstName":       map[string]any{"type": "string"},
						"yearGroup":       map[string]any{"type": "integer", "minimum": 0},
						"classId":         map[string]any{"type": "integer"},
						"parent":          map[string]any{"type": "string"},
						"avatarConfig":    map[string]any{"type": "object"},
					},
					"required": []any{"username", "role"},
					"anyOf": []any{
						map[string]any{"required": []any{"password"}},
						map[string]any{"required": []any{"picturePassword"}},
					},
				},
			},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic":         map[string]any{"type": "string", "minLength": 1},
						"content":       map[string]any{"type": "string", "minLength": 1},
						"correctAnswer": map[string]any{"type": "string", "minLength": 1},
						"distractors":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"difficulty":    map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
						"type":          map[string]any{"type": "string"},
						"explanation":   map[string]any{"type": "string"},
					},
					"required": []any{"topic", "content", "correctAnswer"},
				},
			},
		},
		"additionalProperties": false,
	},
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if doc == nil {
		return nil, errors.New("catalog is empty")
	}
	// Round-trip through JSON so the validator sees JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert catalog: %w", err)
	}
	if err := schema.Validate(catalogSchema, raw); err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded seed catalog: %v", err))
	}
	return c
}

// CatalogWriter is the catalog side of learning.SQLStore.
type CatalogWriter interface {
	CreateTopic(ctx context.Context, t learning.Topic) (learning.Topic, error)
	TopicBySlug(ctx context.Context, slug string) (learning.Topic, error)
	CreateQuestion(ctx context.Context, q learning.Question) (learning.Question, error)
}

// Result counts what Apply inserted.
type Result struct {
	Skipped   bool
	Topics    int
	Users     int
	Questions int
}

// Apply inserts the catalog unless its sentinel user already exists.
// Topics already present by slug are reused.
func Apply(ctx context.Context, c *Catalog, users account.Store, catalog CatalogWriter, log *logger.Logger) (Result, error) {
	if log == nil {
		log = logger.Nop()
	}
	sentinel := c.Sentinel
	if sentinel == "" && len(c.Users) > 0 {
		sentinel = c.Users[0].Username
	}
	if sentinel != "" {
		_, err := users.GetByUsername(ctx, sentinel)
		if err == nil {
			log.Info("seed skipped", "sentinel", sentinel)
			return Result{Skipped: true}, nil
		}
		if !errors.Is(err, account.ErrNotFound) {
			return Result{}, err
		}
	}

	var res Result
	slugs := map[string]int64{}
	for _, t := range c.Topics {
		existing, err := catalog.TopicBySlug(ctx, t.Slug)
		if err == nil {
			slugs[t.Slug] = existing.ID
			continue
		}
		if !errors.Is(err, learning.ErrTopicNotFound) {
			return res, err
		}
		created, err := catalog.CreateTopic(ctx, learning.Topic{
			Name: t.Name, Slug: t.Slug, Stage: t.Stage, SubjectID: t.SubjectID, Description: t.Description,
		})
		if err != nil {
			return res, err
		}
		slugs[t.Slug] = created.ID
		res.Topics++
	}

	byName := map[string]int64{}
	for _, u := range c.Users {
		nu := account.NewUser{
			Username:        u.Username,
			Role:            account.Role(u.Role),
			FirstName:       u.FirstName,
			Password:        u.Password,
			PicturePassword: u.PicturePassword,
			YearGroup:       u.YearGroup,
			ClassID:         u.ClassID,
		}
		if u.Parent != "" {
			pid, ok := byName[u.Parent]
			if !ok {
				return res, fmt.Errorf("user %q: parent %q must be listed before it", u.Username, u.Parent)
			}
			nu.ParentID = &pid
		}
		if u.AvatarConfig != nil {
			b, err := json.Marshal(u.AvatarConfig)
			if err != nil {
				return res, fmt.Errorf("user %q avatar: %w", u.Username, err)
			}
			nu.AvatarConfig = b
		}
		created, err := users.Create(ctx, nu)
		if err != nil {
			return res, err
		}
		byName[u.Username] = created.ID
		res.Users++
	}

	for i, q := range c.Questions {
		topicID, ok := slugs[q.Topic]
		if !ok {
			t, err := catalog.TopicBySlug(ctx, q.Topic)
			if err != nil {
				return res, fmt.Errorf("question %d: topic %q: %w", i, q.Topic, err)
			}
			topicID = t.ID
		}
		if _, err := catalog.CreateQuestion(ctx, learning.Question{
			TopicID:       topicID,
			Content:       q.Content,
			CorrectAnswer: q.CorrectAnswer,
			Distractors:   q.Distractors,
			Difficulty:    q.Difficulty,
			Type:          q.Type,
			Explanation:   q.Explanation,
		}); err != nil {
			return res, err
		}
		res.Questions++
	}

	log.Info("seed applied", "topics", res.Topics, "users", res.Users, "questions", res.Questions)
	return res, nil
}
