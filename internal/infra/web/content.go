package web

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var contentFS embed.FS

type Site struct {
	Name        string        `yaml:"name"`
	Tagline     string        `yaml:"tagline"`
	Badge       string        `yaml:"badge"`
	Description string        `yaml:"description"`
	About       string        `yaml:"about"`
	Contact     Contact       `yaml:"contact"`
	Hours       []OpeningTime `yaml:"hours"`
	Services    []Service     `yaml:"services"`
}

type Contact struct {
	Address      []string `yaml:"address"`
	Phone        string   `yaml:"phone"`
	PhoneDisplay string   `yaml:"phone_display"`
	Email        string   `yaml:"email"`
}

type OpeningTime struct {
	Days string `yaml:"days"`
	Time string `yaml:"time"`
}

type Service struct {
	Title       string   `yaml:"title"`
	Price       string   `yaml:"price"`
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
	Popular     bool     `yaml:"popular"`
}

// Free services link to the discount form instead of the price list.
func (s Service) Free() bool { return s.Price == "FREE" }

type PriceCategory struct {
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Services    []PriceItem `yaml:"services"`
}

type PriceItem struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

type PrivacyPolicy struct {
	Effective string           `yaml:"effective"`
	Sections  []PrivacySection `yaml:"sections"`
}

type PrivacySection struct {
	Title      string        `yaml:"title"`
	Paragraphs []string      `yaml:"paragraphs"`
	Items      []PrivacyItem `yaml:"items"`
	Contact    []string      `yaml:"contact"`
}

type PrivacyItem struct {
	Label string `yaml:"label"`
	Text  string `yaml:"text"`
}

// Content is the static copy rendered by the page handlers.
type Content struct {
	Site    Site
	Pricing []PriceCategory
	Privacy PrivacyPolicy
}

// LoadContent decodes the embedded catalogs.
func LoadContent() (*Content, error) {
	var c Content
	if err := decodeContent("content/site.yaml", &c.Site); err != nil {
		return nil, err
	}
	if err := decodeContent("content/pricing.yaml", &c.Pricing); err != nil {
		return nil, err
	}
	if err := decodeContent("content/privacy.yaml", &c.Privacy); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeContent(name string, dst any) error {
	b, err := contentFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}
