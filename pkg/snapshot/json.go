package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

func (s *Snapshot) encodeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	if s != nil {
		for i, key := range s.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			node := s.entries[key]
			switch node.kind {
			case KindTree:
				if err := node.tree.encodeJSON(buf); err != nil {
					return err
				}
			case KindList:
				list := node.list
				if list == nil {
					list = []string{}
				}
				encoded, err := json.Marshal(list)
				if err != nil {
					return err
				}
				buf.Write(encoded)
			default:
				encoded, err := json.Marshal(node.scalar)
				if err != nil {
					return err
				}
				buf.Write(encoded)
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

func decodeOrdered(dec *json.Decoder) (*Snapshot, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("snapshot: decode: expected JSON object")
	}
	return decodeObject(dec)
}

func decodeObject(dec *json.Decoder) (*Snapshot, error) {
	out := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("snapshot: decode key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("snapshot: decode: unexpected key token %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out.insert(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return out, nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode value: %w", err)
	}
	switch typed := tok.(type) {
	case json.Delim:
		switch typed {
		case '{':
			tree, err := decodeObject(dec)
			if err != nil {
				return nil, err
			}
			return &Value{kind: KindTree, tree: tree}, nil
		case '[':
			list := []string{}
			for dec.More() {
				item, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("snapshot: decode list: %w", err)
				}
				if _, nested := item.(json.Delim); nested {
					return nil, errors.New("snapshot: decode: nested containers inside lists are not supported")
				}
				list = append(list, stringify(item))
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("snapshot: decode list: %w", err)
			}
			return &Value{kind: KindList, list: list}, nil
		default:
			return nil, fmt.Errorf("snapshot: decode: unexpected delimiter %v", typed)
		}
	default:
		return &Value{kind: KindScalar, scalar: stringify(typed)}, nil
	}
}
