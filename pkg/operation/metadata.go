// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"bytes"
	"encoding/xml"

	"github.com/walteh/cmisexport/pkg/repository"
)

const (
	// literalProlog is what existing consumers of exported trees expect
	literalProlog    = "<?xml>"
	wellFormedProlog = `<?xml version="1.0" encoding="UTF-8"?>`
)

// 📝 BuildMetadata renders the sidecar of one document filing. Null
// properties are left out. With wellFormed unset values are written raw
// after a bare <?xml> line.
func BuildMetadata(sourcePath string, props []repository.Property, wellFormed bool) []byte {
	var buf bytes.Buffer

	text := func(s string) {
		if wellFormed {
			_ = xml.EscapeText(&buf, []byte(s))
			return
		}
		buf.WriteString(s)
	}

	if wellFormed {
		buf.WriteString(wellFormedProlog)
	} else {
		buf.WriteString(literalProlog)
	}
	buf.WriteString("\n<metadata>\n")

	buf.WriteString("<sourcePath>")
	text(sourcePath)
	buf.WriteString("</sourcePath>\n")

	for _, prop := range props {
		if prop.IsNull() {
			continue
		}
		buf.WriteString("<" + prop.QueryName + ">")
		text(prop.String())
		buf.WriteString("</" + prop.QueryName + ">\n")
	}

	buf.WriteString("</metadata>\n")
	return buf.Bytes()
}
