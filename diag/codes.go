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

package diag

// Codes groups well-known diagnostic codes by the stage that raises
// them, mirroring the hierarchy the original compiler generated with a
// declarative `codes!{}` macro. Go has no macro facility to generate the
// nesting, so the hierarchy is spelled out as plain constants instead.
var Codes = struct {
	Parse struct {
		UnexpectedToken string
		MissingToken    string
	}
	TypeCheck struct {
		Unimplemented string
	}
}{
	Parse: struct {
		UnexpectedToken string
		MissingToken    string
	}{
		UnexpectedToken: "parse::unexpected_token",
		MissingToken:    "parse::missing_token",
	},
	TypeCheck: struct {
		Unimplemented string
	}{
		Unimplemented: "type_check::unimplemented",
	},
}
