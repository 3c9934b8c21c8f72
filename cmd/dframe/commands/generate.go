package commands

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g", "gen"},
		Short:   "Generate code scaffolds",
	}

	cmd.AddCommand(newGenerateControllerCmd())

	return cmd
}

func newGenerateControllerCmd() *cobra.Command {
	var (
		dir     string
		pkg     string
		api     bool
		methods []string
	)

	cmd := &cobra.Command{
		Use:   "controller [name]",
		Short: "Generate a controller with attribute routes",
		Example: `  dframe generate controller post
  dframe generate controller blog_post --api --methods index,show,store`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pkg == "" {
				pkg = filepath.Base(dir)
			}
			data, err := newControllerData(args[0], pkg, api, methods)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, data.File+".go")
			return generateFile(cmd.OutOrStdout(), path, controllerTemplate, data)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "controllers", "output directory")
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package name, defaults to the directory name")
	cmd.Flags().BoolVar(&api, "api", false, "register the routes under the API prefix")
	cmd.Flags().StringSliceVarP(&methods, "methods", "m", []string{"index", "show"}, "actions to generate (index, show, store, update, destroy)")

	return cmd
}

type controllerAction struct {
	Func   string
	Method string
	Path   string
	Name   string
	Param  bool
}

type controllerData struct {
	Package string
	Type    string
	File    string
	API     bool
	Actions []controllerAction
}

var titleCaser = cases.Title(language.Und)

func newControllerData(name, pkg string, api bool, methods []string) (controllerData, error) {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(words) == 0 {
		return controllerData{}, fmt.Errorf("controller name is empty")
	}
	typeName := ""
	for _, w := range words {
		typeName += titleCaser.String(w)
	}
	typeName = strings.TrimSuffix(typeName, "Controller")
	if typeName == "" {
		return controllerData{}, fmt.Errorf("controller name %q has no base name", name)
	}

	base := "/" + strings.Join(words, "-")
	namePrefix := strings.Join(words, "_")
	if api {
		namePrefix = "api." + namePrefix
	}

	data := controllerData{
		Package: pkg,
		Type:    typeName + "Controller",
		File:    strings.Join(words, "_"),
		API:     api,
	}
	for _, m := range methods {
		action, ok := resourceAction(strings.ToLower(strings.TrimSpace(m)), base)
		if !ok {
			return controllerData{}, fmt.Errorf("unknown action %q", m)
		}
		action.Name = namePrefix + "." + action.Func
		data.Actions = append(data.Actions, action)
	}
	return data, nil
}

func resourceAction(action, base string) (controllerAction, bool) {
	switch action {
	case "index":
		return controllerAction{Func: action, Method: "GET", Path: base}, true
	case "show":
		return controllerAction{Func: action, Method: "GET", Path: base + "/{id}", Param: true}, true
	case "store":
		return controllerAction{Func: action, Method: "POST", Path: base}, true
	case "update":
		return controllerAction{Func: action, Method: "PUT|PATCH", Path: base + "/{id}", Param: true}, true
	case "destroy":
		return controllerAction{Func: action, Method: "DELETE", Path: base + "/{id}", Param: true}, true
	}
	return controllerAction{}, false
}

// generateFile renders tmplContent into path, leaving existing files alone
func generateFile(out io.Writer, path string, tmplContent string, data any) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "File already exists: %s (skipping)\n", path)
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	funcMap := template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"title": titleCaser.String,
	}
	tmpl, err := template.New("file").Funcs(funcMap).Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", path, err)
	}

	if err := os.WriteFile(path, src, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	fmt.Fprintf(out, "Created: %s\n", path)
	return nil
}
