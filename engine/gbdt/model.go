package gbdt

import (
	"bytes"
	"encoding/json"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

const (
	modelFormatName = "boostflow-gbdt"
	modelVersion    = 1
)

// binaryMagic prefixes every binary model file.
var binaryMagic = []byte("BFGB")

// Model is the persisted state of a trained booster.
// Trees are stored round by round; within a round there is one tree per
// output column.
type Model struct {
	Format      string    `json:"format"`
	Version     int       `json:"version"`
	Objective   string    `json:"objective"`
	NumFeatures int       `json:"num_features"`
	NumOutputs  int       `json:"num_outputs"`
	BaseScore   []float64 `json:"base_score"`
	Trees       []Tree    `json:"trees"`
}

// Rounds returns the number of completed boosting rounds.
func (m *Model) Rounds() int {
	if m.NumOutputs == 0 {
		return 0
	}
	return len(m.Trees) / m.NumOutputs
}

// predictRow writes NumOutputs predictions for one sample into out.
func (m *Model) predictRow(sample []float64, out []float64) {
	copy(out, m.BaseScore)
	for i := range m.Trees {
		t := &m.Trees[i]
		out[t.Output] += t.predict(sample)
	}
}

// validate checks structural consistency of a decoded model.
func (m *Model) validate() error {
	if m.NumFeatures <= 0 || m.NumOutputs <= 0 {
		return errors.Newf("model has %d features and %d outputs", m.NumFeatures, m.NumOutputs)
	}
	if len(m.BaseScore) != m.NumOutputs {
		return errors.Newf("base_score has %d entries, want %d", len(m.BaseScore), m.NumOutputs)
	}
	if _, err := parseObjective(m.Objective); err != nil {
		return err
	}
	for ti, t := range m.Trees {
		if t.Output < 0 || t.Output >= m.NumOutputs {
			return errors.Newf("tree %d: output %d out of range", ti, t.Output)
		}
		if len(t.Nodes) == 0 {
			return errors.Newf("tree %d: no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf() {
				continue
			}
			if n.Feature < 0 || n.Feature >= m.NumFeatures {
				return errors.Newf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return errors.Newf("tree %d node %d: invalid children", ti, ni)
			}
		}
	}
	return nil
}

// Encode serializes the model in the given format.
func (m *Model) Encode(format engine.Format) ([]byte, error) {
	switch format {
	case engine.FormatJSON:
		return m.encodeJSON()
	case engine.FormatBinary:
		return m.encodeBinary(), nil
	default:
		return nil, errors.NewInvalidParameter("Save", "format", "unknown model format")
	}
}

// DecodeModel parses a model, detecting the binary format by its magic
// prefix and falling back to JSON.
func DecodeModel(data []byte) (*Model, error) {
	var (
		m   *Model
		err error
	)
	if bytes.HasPrefix(data, binaryMagic) {
		m, err = decodeBinary(data[len(binaryMagic):])
	} else {
		m, err = decodeJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}
	return m, nil
}

func (m *Model) encodeJSON() ([]byte, error) {
	out := *m
	out.Format = modelFormatName
	out.Version = modelVersion
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode model as json")
	}
	return data, nil
}

func decodeJSON(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decode json model")
	}
	if m.Format != modelFormatName {
		return nil, errors.Newf("not a %s model (format %q)", modelFormatName, m.Format)
	}
	if m.Version != modelVersion {
		return nil, errors.Newf("unsupported model version %d", m.Version)
	}
	return &m, nil
}

// Binary layout (protobuf wire format, no schema compiler involved):
//
//	Model: 1 version varint, 2 objective string, 3 num_features varint,
//	       4 num_outputs varint, 5 base_score fixed64 (repeated),
//	       6 tree message (repeated)
//	Tree:  1 output varint, 2 node message (repeated)
//	Node:  1 feature varint, 2 threshold fixed64, 3 left zigzag,
//	       4 right zigzag, 5 value fixed64
const (
	fieldVersion     protowire.Number = 1
	fieldObjective   protowire.Number = 2
	fieldNumFeatures protowire.Number = 3
	fieldNumOutputs  protowire.Number = 4
	fieldBaseScore   protowire.Number = 5
	fieldTree        protowire.Number = 6

	fieldTreeOutput protowire.Number = 1
	fieldTreeNode   protowire.Number = 2

	fieldNodeFeature   protowire.Number = 1
	fieldNodeThreshold protowire.Number = 2
	fieldNodeLeft      protowire.Number = 3
	fieldNodeRight     protowire.Number = 4
	fieldNodeValue     protowire.Number = 5
)

func (m *Model) encodeBinary() []byte {
	b := append([]byte(nil), binaryMagic...)
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, modelVersion)
	b = protowire.AppendTag(b, fieldObjective, protowire.BytesType)
	b = protowire.AppendString(b, m.Objective)
	b = protowire.AppendTag(b, fieldNumFeatures, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.NumFeatures))
	b = protowire.AppendTag(b, fieldNumOutputs, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.NumOutputs))
	for _, v := range m.BaseScore {
		b = protowire.AppendTag(b, fieldBaseScore, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	var tb, nb []byte
	for i := range m.Trees {
		t := &m.Trees[i]
		tb = tb[:0]
		tb = protowire.AppendTag(tb, fieldTreeOutput, protowire.VarintType)
		tb = protowire.AppendVarint(tb, uint64(t.Output))
		for _, n := range t.Nodes {
			nb = nb[:0]
			nb = protowire.AppendTag(nb, fieldNodeFeature, protowire.VarintType)
			nb = protowire.AppendVarint(nb, uint64(n.Feature))
			nb = protowire.AppendTag(nb, fieldNodeThreshold, protowire.Fixed64Type)
			nb = protowire.AppendFixed64(nb, math.Float64bits(n.Threshold))
			nb = protowire.AppendTag(nb, fieldNodeLeft, protowire.VarintType)
			nb = protowire.AppendVarint(nb, protowire.EncodeZigZag(int64(n.Left)))
			nb = protowire.AppendTag(nb, fieldNodeRight, protowire.VarintType)
			nb = protowire.AppendVarint(nb, protowire.EncodeZigZag(int64(n.Right)))
			nb = protowire.AppendTag(nb, fieldNodeValue, protowire.Fixed64Type)
			nb = protowire.AppendFixed64(nb, math.Float64bits(n.Value))
			tb = protowire.AppendTag(tb, fieldTreeNode, protowire.BytesType)
			tb = protowire.AppendBytes(tb, nb)
		}
		b = protowire.AppendTag(b, fieldTree, protowire.BytesType)
		b = protowire.AppendBytes(b, tb)
	}
	return b
}

// wireReader walks the fields of one message.
type wireReader struct {
	b   []byte
	err error
}

// next returns the next field number and type, or false at the end or on error.
func (r *wireReader) next() (protowire.Number, protowire.Type, bool) {
	if r.err != nil || len(r.b) == 0 {
		return 0, 0, false
	}
	num, typ, n := protowire.ConsumeTag(r.b)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return 0, 0, false
	}
	r.b = r.b[n:]
	return num, typ, true
}

func (r *wireReader) advance(n int) bool {
	if n < 0 {
		r.err = protowire.ParseError(n)
		return false
	}
	r.b = r.b[n:]
	return true
}

func (r *wireReader) varint(typ protowire.Type) uint64 {
	if !r.expect(typ, protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(r.b)
	r.advance(n)
	return v
}

func (r *wireReader) float(typ protowire.Type) float64 {
	if !r.expect(typ, protowire.Fixed64Type) {
		return 0
	}
	v, n := protowire.ConsumeFixed64(r.b)
	r.advance(n)
	return math.Float64frombits(v)
}

func (r *wireReader) bytes(typ protowire.Type) []byte {
	if !r.expect(typ, protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(r.b)
	r.advance(n)
	return v
}

func (r *wireReader) skip(num protowire.Number, typ protowire.Type) {
	r.advance(protowire.ConsumeFieldValue(num, typ, r.b))
}

func (r *wireReader) expect(got, want protowire.Type) bool {
	if r.err != nil {
		return false
	}
	if got != want {
		r.err = errors.Newf("unexpected wire type %d, want %d", got, want)
		return false
	}
	return true
}

func decodeBinary(data []byte) (*Model, error) {
	m := &Model{Format: modelFormatName}
	r := &wireReader{b: data}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case fieldVersion:
			m.Version = int(r.varint(typ))
		case fieldObjective:
			m.Objective = string(r.bytes(typ))
		case fieldNumFeatures:
			m.NumFeatures = int(r.varint(typ))
		case fieldNumOutputs:
			m.NumOutputs = int(r.varint(typ))
		case fieldBaseScore:
			m.BaseScore = append(m.BaseScore, r.float(typ))
		case fieldTree:
			body := r.bytes(typ)
			if r.err != nil {
				break
			}
			t, err := decodeTree(body)
			if err != nil {
				return nil, err
			}
			m.Trees = append(m.Trees, t)
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return nil, errors.Wrap(r.err, "decode binary model")
	}
	if m.Version != modelVersion {
		return nil, errors.Newf("unsupported model version %d", m.Version)
	}
	return m, nil
}

func decodeTree(data []byte) (Tree, error) {
	var t Tree
	r := &wireReader{b: data}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case fieldTreeOutput:
			t.Output = int(r.varint(typ))
		case fieldTreeNode:
			body := r.bytes(typ)
			if r.err != nil {
				break
			}
			n, err := decodeNode(body)
			if err != nil {
				return Tree{}, err
			}
			t.Nodes = append(t.Nodes, n)
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return Tree{}, errors.Wrap(r.err, "decode tree")
	}
	return t, nil
}

func decodeNode(data []byte) (Node, error) {
	var n Node
	r := &wireReader{b: data}
	for {
		num, typ, ok := r.next()
		if !ok {
			break
		}
		switch num {
		case fieldNodeFeature:
			n.Feature = int(r.varint(typ))
		case fieldNodeThreshold:
			n.Threshold = r.float(typ)
		case fieldNodeLeft:
			n.Left = int(protowire.DecodeZigZag(r.varint(typ)))
		case fieldNodeRight:
			n.Right = int(protowire.DecodeZigZag(r.varint(typ)))
		case fieldNodeValue:
			n.Value = r.float(typ)
		default:
			r.skip(num, typ)
		}
	}
	if r.err != nil {
		return Node{}, errors.Wrap(r.err, "decode node")
	}
	return n, nil
}
