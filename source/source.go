// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package source holds the interned data model every pipeline stage reads
// from: source files, byte-range spans, and target triples.
package source

import (
	"fmt"
	"strings"
)

// File is an interned source file: a display path plus its contents.
// Two Files compare equal when both path and contents match; the engine
// uses that structural equality as its query cache key, not pointer
// identity.
type File struct {
	Path     string
	Contents string
}

// NewFile interns a source file.
func NewFile(path, contents string) File {
	return File{Path: path, Contents: contents}
}

// Span is a half-open byte range [Start, Start+Length) into a File's
// contents.
type Span struct {
	Start  int
	Length int
}

// NewSpan builds a Span, as a byte offset and a length.
func NewSpan(start, length int) Span {
	return Span{Start: start, Length: length}
}

// End returns the exclusive end offset of the span.
func (s Span) End() int {
	return s.Start + s.Length
}

// Slice returns the bytes of text the span covers.
func (s Span) Slice(text string) string {
	return text[s.Start:s.End()]
}

// Triple identifies a compilation target as <arch>-<vendor>-<os>.
// modernc.org/cc/v4 and the rest of the retrieved pack have no
// LLVM-style triple type, so this is a small hand-written struct; see
// DESIGN.md for why it isn't built on a third-party dependency.
type Triple struct {
	Arch   string
	Vendor string
	OS     string
}

// X8664Darwin is the default macOS target.
func X8664Darwin() Triple {
	return Triple{Arch: "x86_64", Vendor: "apple", OS: "darwin"}
}

// X8664Linux is the default Linux target.
func X8664Linux() Triple {
	return Triple{Arch: "x86_64", Vendor: "unknown", OS: "linux"}
}

// IsDarwin reports whether the triple targets macOS.
func (t Triple) IsDarwin() bool {
	return t.OS == "darwin" || t.OS == "macos"
}

// IsLinux reports whether the triple targets Linux, with or without an
// environment suffix (linux, linux-gnu, ...).
func (t Triple) IsLinux() bool {
	return t.OS == "linux" || strings.HasPrefix(t.OS, "linux-")
}

func (t Triple) String() string {
	if t.Vendor == "" {
		return fmt.Sprintf("%s-%s", t.Arch, t.OS)
	}
	return fmt.Sprintf("%s-%s-%s", t.Arch, t.Vendor, t.OS)
}

// HostTriple normalizes the host GOARCH/GOOS into a Triple, the way the
// teacher defaults its --target/--target-os flags from runtime.GOARCH
// and runtime.GOOS.
func HostTriple(goos, goarch string) (Triple, error) {
	var arch string
	switch goarch {
	case "amd64":
		arch = "x86_64"
	default:
		return Triple{}, fmt.Errorf("unsupported host architecture: %s", goarch)
	}

	switch goos {
	case "darwin":
		return Triple{Arch: arch, Vendor: "apple", OS: "darwin"}, nil
	case "linux":
		return Triple{Arch: arch, Vendor: "unknown", OS: "linux"}, nil
	default:
		return Triple{}, fmt.Errorf("unsupported host OS: %s", goos)
	}
}

// ParseTriple parses a triple of the form <arch>-<vendor>-<os> or
// <arch>-<os>.
func ParseTriple(s string) (Triple, error) {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])

	switch len(parts) {
	case 2:
		return Triple{Arch: parts[0], OS: parts[1]}, nil
	case 3:
		return Triple{Arch: parts[0], Vendor: parts[1], OS: parts[2]}, nil
	case 4:
		return Triple{Arch: parts[0], Vendor: parts[1], OS: parts[2] + "-" + parts[3]}, nil
	default:
		return Triple{}, fmt.Errorf("invalid target triple: %q", s)
	}
}
