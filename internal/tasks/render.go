package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/shaiso/Ponos/internal/worker"
)

// renderData — данные, доступные в шаблоне: {{ .Vars.name }}.
type renderData struct {
	Vars map[string]any
}

var templateFuncs = template.FuncMap{
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},
	"fromJSON": func(s string) any {
		var result any
		if err := json.Unmarshal([]byte(s), &result); err != nil {
			return nil
		}
		return result
	},
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},
	"split":   func(sep, s string) []string { return strings.Split(s, sep) },
	"join":    func(sep string, items []string) string { return strings.Join(items, sep) },
	"lower":   strings.ToLower,
	"upper":   strings.ToUpper,
	"trim":    strings.TrimSpace,
	"replace": strings.ReplaceAll,
}

// Render рендерит Go templates в job.template с переменными job.vars.
//
// template может быть строкой, объектом или массивом: строки внутри
// рендерятся рекурсивно, остальные значения возвращаются как есть.
// Ошибка шаблона — worker.Stop: тот же job снова не отрендерится.
func Render(_ context.Context, job any) (any, error) {
	cfg, err := jobConfig(job)
	if err != nil {
		return nil, err
	}

	vars, _ := cfg["vars"].(map[string]any)
	if vars == nil {
		vars = make(map[string]any)
	}

	out, err := renderValue(cfg["template"], &renderData{Vars: vars})
	if err != nil {
		return nil, worker.Stop("render template", err)
	}
	return out, nil
}

// renderString рендерит один шаблон. Строки без {{ возвращаются как есть.
func renderString(tmpl string, data *renderData) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}

func renderValue(value any, data *renderData) (any, error) {
	switch v := value.(type) {
	case string:
		return renderString(v, data)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			rendered, err := renderValue(val, data)
			if err != nil {
				return nil, err
			}
			result[key] = rendered
		}
		return result, nil

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			rendered, err := renderValue(val, data)
			if err != nil {
				return nil, err
			}
			result[i] = rendered
		}
		return result, nil

	default:
		return value, nil
	}
}
