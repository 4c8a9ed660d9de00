package hdfs

import (
	"strings"

	appErr "nodeagent/pkg/errors"

	"github.com/google/shlex"
)

// Templates holds the argument template of each client invocation.
// Placeholders {path}, {src} and {dst} are substituted after the template
// is split into arguments, so substituted values never get re-tokenized.
type Templates struct {
	Version       string `yaml:"version"`
	Exists        string `yaml:"exists"`
	Usage         string `yaml:"usage"`
	Remove        string `yaml:"remove"`
	CopyFromLocal string `yaml:"copyFromLocal"`
	CopyToLocal   string `yaml:"copyToLocal"`
}

// DefaultTemplates returns the argument layout of the stock hadoop client.
func DefaultTemplates() Templates {
	return Templates{
		Version:       "version",
		Exists:        "fs -test -e {path}",
		Usage:         "fs -du {path}",
		Remove:        "fs -rm {path}",
		CopyFromLocal: "fs -copyFromLocal {src} {dst}",
		CopyToLocal:   "fs -copyToLocal {src} {dst}",
	}
}

func (t Templates) withDefaults() Templates {
	d := DefaultTemplates()
	if t.Version == "" {
		t.Version = d.Version
	}
	if t.Exists == "" {
		t.Exists = d.Exists
	}
	if t.Usage == "" {
		t.Usage = d.Usage
	}
	if t.Remove == "" {
		t.Remove = d.Remove
	}
	if t.CopyFromLocal == "" {
		t.CopyFromLocal = d.CopyFromLocal
	}
	if t.CopyToLocal == "" {
		t.CopyToLocal = d.CopyToLocal
	}
	return t
}

type argTemplate []string

type compiledTemplates struct {
	version       argTemplate
	exists        argTemplate
	usage         argTemplate
	remove        argTemplate
	copyFromLocal argTemplate
	copyToLocal   argTemplate
}

func (t Templates) compile() (compiledTemplates, error) {
	t = t.withDefaults()
	var out compiledTemplates
	var err error
	for _, item := range []struct {
		name string
		tpl  string
		dst  *argTemplate
	}{
		{"version", t.Version, &out.version},
		{"exists", t.Exists, &out.exists},
		{"usage", t.Usage, &out.usage},
		{"remove", t.Remove, &out.remove},
		{"copyFromLocal", t.CopyFromLocal, &out.copyFromLocal},
		{"copyToLocal", t.CopyToLocal, &out.copyToLocal},
	} {
		*item.dst, err = parseTemplate(item.tpl)
		if err != nil {
			return compiledTemplates{}, appErr.Wrapf(err, appErr.InvalidParams, "parse %s template failed: %v", item.name, err)
		}
	}
	return out, nil
}

func parseTemplate(tpl string) (argTemplate, error) {
	fields, err := shlex.Split(tpl)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("template is empty")
	}
	return argTemplate(fields), nil
}

// expand substitutes vars in a single pass, so a value that itself
// contains a placeholder is passed through verbatim.
func (a argTemplate) expand(vars map[string]string) []string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	out := make([]string, len(a))
	for i, field := range a {
		out[i] = r.Replace(field)
	}
	return out
}
