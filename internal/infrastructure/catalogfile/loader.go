package catalogfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
)

// Load reads a catalog seed file. The format follows the extension: .yaml,
// .yml or .toml.
func Load(path string) (ports.CatalogSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ports.CatalogSnapshot{}, errs.Wrapf(err, "read catalog file %s", path)
	}
	return Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// Parse decodes data in the given format and validates references between
// catalog records.
func Parse(data []byte, format string) (ports.CatalogSnapshot, error) {
	var snapshot ports.CatalogSnapshot
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &snapshot); err != nil {
			return ports.CatalogSnapshot{}, errs.Wrap(err, "decode yaml catalog")
		}
	case "toml":
		if err := toml.Unmarshal(data, &snapshot); err != nil {
			return ports.CatalogSnapshot{}, errs.Wrap(err, "decode toml catalog")
		}
	default:
		return ports.CatalogSnapshot{}, fmt.Errorf("unsupported catalog format %q", format)
	}

	if err := validate(snapshot); err != nil {
		return ports.CatalogSnapshot{}, err
	}
	return snapshot, nil
}

func validate(s ports.CatalogSnapshot) error {
	sites := make(map[uint64]bool, len(s.Sites))
	for _, site := range s.Sites {
		if site.SiteID == 0 {
			return fmt.Errorf("site %q: id is required", site.Name)
		}
		sites[site.SiteID] = true
	}

	levels := make(map[uint64]uint64, len(s.Levels))
	for _, level := range s.Levels {
		if level.LevelID == 0 {
			return fmt.Errorf("level %q: id is required", level.Name)
		}
		levels[level.LevelID] = level.SiteID
	}
	for _, level := range s.Levels {
		if level.SuperiorID == 0 {
			continue
		}
		siteID, ok := levels[level.SuperiorID]
		if !ok {
			continue
		}
		if siteID != level.SiteID {
			return fmt.Errorf("level %d: superior %d belongs to site %d", level.LevelID, level.SuperiorID, siteID)
		}
	}

	checkSite := func(what string, id uint64, siteID uint64) error {
		if len(sites) > 0 && !sites[siteID] {
			return fmt.Errorf("%s %d: unknown site %d", what, id, siteID)
		}
		return nil
	}
	for _, level := range s.Levels {
		if err := checkSite("level", level.LevelID, level.SiteID); err != nil {
			return err
		}
	}
	for _, p := range s.Priorities {
		if err := checkSite("priority", p.PriorityID, p.SiteID); err != nil {
			return err
		}
	}
	for _, ct := range s.CardTypes {
		if err := checkSite("card type", ct.CardTypeID, ct.SiteID); err != nil {
			return err
		}
	}
	for _, pc := range s.Preclassifiers {
		if err := checkSite("preclassifier", pc.PreclassifierID, pc.SiteID); err != nil {
			return err
		}
	}
	for _, u := range s.Users {
		if err := checkSite("user", u.UserID, u.SiteID); err != nil {
			return err
		}
	}
	return nil
}
