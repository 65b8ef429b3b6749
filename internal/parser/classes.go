package parser

import (
	"bytes"
	"encoding/json"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/richardwooding/dexstr/internal/record"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Classes parses the JSON array printed by icj. Every object with a
// classname field yields one record of type "class".
func Classes(output string) Result {
	var res Result

	var elems []jsoniter.RawMessage
	if err := jsonAPI.UnmarshalFromString(output, &elems); err != nil {
		res.skip(0, ReasonInvalidJSON, err.Error())
		return res
	}

	for i, raw := range elems {
		var fields map[string]jsoniter.RawMessage
		if err := jsonAPI.Unmarshal(raw, &fields); err != nil || fields == nil {
			res.skip(i+1, ReasonNotAnObject, string(raw))
			continue
		}

		v, ok := fields["classname"]
		if !ok {
			res.skip(i+1, ReasonNoClassname, string(raw))
			continue
		}
		name := className(v)

		var n json.Number
		if v, ok := fields["addr"]; ok && jsonAPI.Unmarshal(v, &n) != nil {
			res.skip(i+1, ReasonInvalidAddr, string(raw))
			continue
		}
		addr, ok := classAddr(n)
		if !ok {
			res.skip(i+1, ReasonInvalidAddr, string(raw))
			continue
		}

		res.Records = append(res.Records, record.Record{
			HexID:   addr,
			Size:    record.SizeUnknown,
			Content: name,
			Type:    record.TypeClass,
		})
	}
	return res
}

// className returns a string classname as is and any other value as its
// JSON text.
func className(v jsoniter.RawMessage) string {
	text := bytes.TrimSpace(v)
	var name string
	if len(text) > 0 && text[0] == '"' && jsonAPI.Unmarshal(text, &name) == nil {
		return name
	}
	return string(text)
}

// classAddr renders an icj addr field as hex; a missing addr counts as 0.
func classAddr(n json.Number) (string, bool) {
	if n == "" {
		return record.FormatAddress(0), true
	}
	if v, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return "0x" + strconv.FormatUint(v, 16), true
	}
	if v, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return record.FormatAddress(v), true
	}
	return "", false
}
