// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package version defines version information.
package version

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
)

var (
	// Name is set at build time.
	Name = "bstool"
	// Tag is set at build time.
	Tag = "none"
	// SHA is set at build time.
	SHA = "undefined"
)

// Info describes the running binary.
type Info struct {
	Name      string
	Tag       string
	SHA       string
	GoVersion string
	OS        string
	Arch      string
}

const longTemplate = `{{ .Name }}:
	Tag:         {{ .Tag }}
	SHA:         {{ .SHA }}
	Go version:  {{ .GoVersion }}
	OS/Arch:     {{ .OS }}/{{ .Arch }}
`

// NewInfo returns version information of the running binary.
func NewInfo() Info {
	return Info{
		Name:      Name,
		Tag:       Tag,
		SHA:       SHA,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Short returns the name, tag and SHA on one line.
func (i Info) Short() string {
	return fmt.Sprintf("%s %s-%s", i.Name, i.Tag, i.SHA)
}

// WriteLong writes verbose version information.
func (i Info) WriteLong(w io.Writer) error {
	tmpl, err := template.New("version").Parse(longTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, i)
}
