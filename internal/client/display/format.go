package display

import (
	"encoding/json"
	"fmt"
	"io"
)

// PrettyJSON writes v as indented JSON
func PrettyJSON(w io.Writer, v any) {
	if w == nil {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(w, Failure.Render("Error formatting JSON: "+err.Error()))
		return
	}
	fmt.Fprintln(w, string(data))
}
