package services

import (
	"fmt"
	"slices"
	"strings"

	"leetclone/internal/models"
)

// cppPlaceholder marks where user code goes inside a C++ harness.
const cppPlaceholder = "cppCode"

// LanguageConfig describes how a language's runnable program is assembled.
type LanguageConfig struct {
	// Harness picks the language's template out of a test case.
	Harness func(tc models.TestCase) string
	// Compose combines harness and user code. It must be pure.
	Compose func(harness, userCode string) string
	// SnippetIndex is the position of the language in the GraphQL codeSnippets list.
	SnippetIndex int
}

func harnessFirst(harness, userCode string) string {
	return harness + "\n" + userCode
}

func codeFirst(harness, userCode string) string {
	return userCode + "\n" + harness
}

func substitutePlaceholder(harness, userCode string) string {
	return strings.Replace(harness, cppPlaceholder, userCode, 1)
}

var languageConfigs = map[string]LanguageConfig{
	"java": {
		Harness:      func(tc models.TestCase) string { return tc.JavaProgram },
		Compose:      harnessFirst,
		SnippetIndex: 1,
	},
	"c": {
		Harness:      func(tc models.TestCase) string { return tc.CProgram },
		Compose:      harnessFirst,
		SnippetIndex: 4,
	},
	"cpp": {
		Harness:      func(tc models.TestCase) string { return tc.CppProgram },
		Compose:      substitutePlaceholder,
		SnippetIndex: 0,
	},
	"python": {
		Harness:      func(tc models.TestCase) string { return tc.PythonProgram },
		Compose:      codeFirst,
		SnippetIndex: 2,
	},
	"javascript": {
		Harness:      func(tc models.TestCase) string { return tc.JavascriptProgram },
		Compose:      codeFirst,
		SnippetIndex: 6,
	},
}

func GetLanguageConfig(language string) (LanguageConfig, error) {
	cfg, ok := languageConfigs[language]
	if !ok {
		return LanguageConfig{}, fmt.Errorf("unsupported language: %s", language)
	}
	return cfg, nil
}

// SupportedLanguages returns the language keys in a stable order.
func SupportedLanguages() []string {
	langs := make([]string, 0, len(languageConfigs))
	for name := range languageConfigs {
		langs = append(langs, name)
	}
	slices.Sort(langs)
	return langs
}

// ComposeProgram builds the full source submitted for one test case.
func ComposeProgram(language string, tc models.TestCase, userCode string) (string, error) {
	cfg, err := GetLanguageConfig(language)
	if err != nil {
		return "", err
	}
	return cfg.Compose(cfg.Harness(tc), userCode), nil
}
