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

package driver

import (
	"os/exec"

	"github.com/mcc-lang/mcc/source"
)

// preprocess invokes the system C compiler's preprocessor over file,
// returning the preprocessed text. The result is written to a scratch
// file by Run but is not fed back into the parser: the parser re-reads
// file's own contents, matching the upstream behaviour this core
// preserves (see DESIGN.md).
func preprocess(cc string, file source.File) (string, error) {
	cmd := exec.Command(cc, "-E", "-P", file.Path)
	cmd.Stdin = nil

	out, err := runCommand(cmd)
	if err != nil {
		return "", err
	}
	return out, nil
}

// assembleAndLink invokes the system C compiler as an assembler and
// linker, turning assembly into an executable at dest. On Darwin
// targets that aren't aarch64, an -arch flag cross-compiles to the
// requested architecture.
func assembleAndLink(cc, assembly, dest string, target source.Triple) error {
	args := []string{"-o", dest, "-g"}
	if target.IsDarwin() && target.Arch != "aarch64" {
		args = append(args, "-arch", target.Arch)
	}
	args = append(args, assembly)

	cmd := exec.Command(cc, args...)
	_, err := runCommand(cmd)
	return err
}
