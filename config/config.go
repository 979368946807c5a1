// Package config resolves the txsync project configuration: where the
// translation catalogs live, which branch to sync, which external tool
// binaries to call, and the commit messages used for checkpoints.
//
// Defaults match the MediaGoblin source layout. A .txsync.yaml file in
// the project root overrides any field, and a .env file (if present)
// supplies environment variables such as TX_TOKEN without polluting
// the shell.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-project configuration file.
const ConfigFileName = ".txsync.yaml"

// EnvFileName is the optional per-project environment file.
const EnvFileName = ".env"

// Commit messages recorded as pipeline checkpoints. These are fixed:
// downstream tooling greps the history for them.
const (
	PrePushCommitMessage = "Committing present MediaGoblin translations before pushing extracted messages"
	FinalCommitMessage   = "Committing extracted and compiled translations"
)

// Project holds the resolved configuration for one sync run.
type Project struct {
	// Root is the absolute path to the repository checkout.
	Root string `yaml:"-"`

	// Branch is the main-line branch the pipeline syncs.
	Branch string `yaml:"branch"`

	// TranslationsDir is the catalog tree tracked in version control,
	// relative to Root.
	TranslationsDir string `yaml:"translations_dir"`

	// POTFile is the extracted template catalog path, relative to Root.
	POTFile string `yaml:"pot_file"`

	// MappingFile is the pybabel extraction mapping config, relative to Root.
	MappingFile string `yaml:"mapping_file"`

	// Domain is the gettext domain compiled by pybabel.
	Domain string `yaml:"domain"`

	// TxBin is the Transifex client executable, relative to Root unless absolute.
	TxBin string `yaml:"tx_bin"`

	// PybabelBin is the pybabel executable, relative to Root unless absolute.
	PybabelBin string `yaml:"pybabel_bin"`

	// TxToken authenticates against Transifex. Usually supplied via the
	// TX_TOKEN environment variable (optionally through .env) rather
	// than the config file.
	TxToken string `yaml:"tx_token,omitempty"`
}

// defaults returns the MediaGoblin layout the original workflow assumed.
func defaults(root string) *Project {
	return &Project{
		Root:            root,
		Branch:          "master",
		TranslationsDir: "mediagoblin/i18n",
		POTFile:         "mediagoblin/i18n/templates/mediagoblin.pot",
		MappingFile:     "babel.ini",
		Domain:          "mediagoblin",
		TxBin:           "./bin/tx",
		PybabelBin:      "./bin/pybabel",
	}
}

// Load resolves the project configuration for the given root directory.
// Missing .txsync.yaml and .env files are not errors; a malformed
// .txsync.yaml is.
func Load(root string) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	proj := defaults(absRoot)

	// .env supplements the shell environment; it is read rather than
	// loaded into the process so an exported variable always wins,
	// whether or not it is empty.
	var envFile map[string]string
	envPath := filepath.Join(absRoot, EnvFileName)
	if _, err := os.Stat(envPath); err == nil {
		envFile, err = godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	cfgPath := filepath.Join(absRoot, ConfigFileName)
	data, err := os.ReadFile(cfgPath)
	if err == nil {
		if err := yaml.Unmarshal(data, proj); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", cfgPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", cfgPath, err)
	}
	proj.Root = absRoot

	// Token precedence: config file, then the shell environment, then
	// the .env file.
	if proj.TxToken == "" {
		proj.TxToken = os.Getenv("TX_TOKEN")
	}
	if proj.TxToken == "" {
		proj.TxToken = envFile["TX_TOKEN"]
	}

	return proj, nil
}

// AbsTranslationsDir returns the absolute catalog tree path.
func (p *Project) AbsTranslationsDir() string {
	return filepath.Join(p.Root, p.TranslationsDir)
}

// AbsPOTFile returns the absolute template catalog path.
func (p *Project) AbsPOTFile() string {
	return filepath.Join(p.Root, p.POTFile)
}

// AbsMappingFile returns the absolute extraction mapping config path.
func (p *Project) AbsMappingFile() string {
	return filepath.Join(p.Root, p.MappingFile)
}

// POPath returns the catalog path for a language, following the
// nested LC_MESSAGES layout (i18n/<lang>/LC_MESSAGES/<domain>.po).
func (p *Project) POPath(lang string) string {
	return filepath.Join(p.AbsTranslationsDir(), lang, "LC_MESSAGES", p.Domain+".po")
}

// Languages scans the translations tree for per-language catalogs and
// returns the sorted language codes found. A missing tree yields an
// empty list, not an error: a fresh checkout may not have pulled any
// translations yet.
func (p *Project) Languages() []string {
	entries, err := os.ReadDir(p.AbsTranslationsDir())
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "templates" {
			continue
		}
		if _, err := os.Stat(p.POPath(entry.Name())); err == nil {
			langs = append(langs, entry.Name())
		}
	}
	sort.Strings(langs)
	return langs
}
