package glbuild

import (
	"bytes"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms2"
)

const VersionStr = "#version 430\n"

// Shader stores information for automatically generating colored SDF shader
// pipelines and evaluating them correctly on a GPU.
//
// Every shader is emitted as a GLSL function with the signature
//
//	float <name>(vec2 p, out vec4 c)
//
// which returns the signed distance at p and stores the color in c.
type Shader interface {
	// AppendShaderName appends the name of the GL shader function
	// to the buffer and returns the result. It should be unique to that shader.
	AppendShaderName(b []byte) []byte
	// AppendShaderBody appends the body of the shader function to the
	// buffer and returns the result. The body must assign c before returning.
	AppendShaderBody(b []byte) []byte
}

// Shader2D can create colored SDF shader source code for an arbitrary 2D shape.
type Shader2D interface {
	Shader
	// ForEach2DChild iterates over the Shader2D's direct children.
	// Unary operations have one child i.e: Translate, Scale.
	// Binary operations have two children i.e: Subtract, Blend.
	ForEach2DChild(userData any, fn func(userData any, s Shader2D) error) error
}

// Programmer implements shader generation logic for Shader2D trees.
type Programmer struct {
	scratchNodes  []Shader2D
	scratch       []byte
	computeHeader []byte
	// names maps shader names to body hashes for checking duplicates.
	names map[uint64]uint64
	// Invocations size in X (local group size) to give each compute work group.
	invocX int
}

var defaultComputeHeader = []byte("#shader compute\n" + VersionStr)

// NewDefaultProgrammer returns a Programmer with reasonable default parameters.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratchNodes:  make([]Shader2D, 64),
		scratch:       make([]byte, 1024),
		computeHeader: defaultComputeHeader,
		names:         make(map[uint64]uint64),
		invocX:        32,
	}
}

// SetComputeInvocations sets the work group local-sizes. x*y*z must be less than maximum number of invocations.
func (p *Programmer) SetComputeInvocations(x, y, z int) {
	if y != 1 || z != 1 {
		panic("unsupported")
	} else if x < 1 {
		panic("zero or negative X invocation size")
	}
	p.invocX = x
}

// ComputeInvocations returns the worker group invocation size in x y and z.
func (p *Programmer) ComputeInvocations() (int, int, int) {
	return p.invocX, 1, 1
}

// WriteComputeSDF2 creates the bare bones I/O compute program for calculating
// distances and colors of a 2D SDF and writes it to the writer.
func (p *Programmer) WriteComputeSDF2(w io.Writer, obj Shader2D) (int, error) {
	baseName, nodes, err := ParseAppendNodes(p.scratchNodes[:0], obj)
	if err != nil {
		return 0, err
	}
	// Begin writing shader source code.
	n, err := w.Write(p.computeHeader)
	if err != nil {
		return n, err
	}
	ngot, err := p.writeShaders(w, nodes)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = fmt.Fprintf(w, `

layout(local_size_x = %d, local_size_y = 1, local_size_z = 1) in;

// Input: 2D positions at which to evaluate SDF.
layout(std430, binding = 0) buffer PositionsBuffer {
    vec2 vbo_positions[];
};

// Output: Result of SDF evaluation are the distances. Maps to position buffer.
layout(std430, binding = 1) buffer DistancesBuffer {
    float vbo_distances[];
};

// Output: Colors reported by the SDF. Maps to position buffer.
layout(std430, binding = 2) buffer ColorsBuffer {
    vec4 vbo_colors[];
};

void main() {
	int idx = int( gl_GlobalInvocationID.x );

	vec2 p = vbo_positions[idx];
	vec4 c;
	vbo_distances[idx] = %s(p, c);
	vbo_colors[idx] = c;
}
`, p.invocX, baseName)

	n += ngot
	return n, err
}

//go:embed visualizer2d_footer.tmpl
var shaderToyVisualFooter2D []byte

// WriteShaderToyVisualizerSDF2 generates an OpenGL program that can be visualized in most
// shader visualizers such as ShaderToy. Scene units map to pixels with the origin at the center.
func (p *Programmer) WriteShaderToyVisualizerSDF2(w io.Writer, obj Shader2D) (n int, err error) {
	baseName, n, err := p.WriteSDFDecl(w, obj)
	if err != nil {
		return n, err
	}
	ngot, err := w.Write([]byte("\nfloat sdf(vec2 p, out vec4 c) { return " + baseName + "(p, c); }\n\n"))
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = w.Write(shaderToyVisualFooter2D)
	n += ngot
	return n, err
}

// WriteSDFDecl writes the SDF shader function declarations and returns the top-level SDF function name.
func (p *Programmer) WriteSDFDecl(w io.Writer, s Shader2D) (baseName string, n int, err error) {
	baseName, nodes, err := ParseAppendNodes(p.scratchNodes[:0], s)
	if err != nil {
		return "", 0, err
	}
	n, err = p.writeShaders(w, nodes)
	if err != nil {
		return "", n, err
	}
	return baseName, n, nil
}

func (p *Programmer) writeShaders(w io.Writer, nodes []Shader2D) (n int, err error) {
	clear(p.names)
	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		var name, body []byte
		p.scratch, name, body = AppendShaderSource(p.scratch[:0], node)
		nameHash := hash(name, 0)
		bodyHash := hash(body, nameHash) // Body hash mixes name as well.
		gotBodyHash, nameConflict := p.names[nameHash]
		if nameConflict {
			// Name already exists in tree, check if bodies are identical.
			if bodyHash == gotBodyHash {
				continue // Shader already written and is identical, skip.
			}
			return n, fmt.Errorf("duplicate %T shader name %q with distinct body:\n%s", node, name, body)
		}
		p.names[nameHash] = bodyHash
		ngot, err := w.Write(p.scratch)
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ParseAppendNodes parses the shader object tree and appends all nodes in breadth first order
// to the dst Shader argument buffer and returns the result.
func ParseAppendNodes(dst []Shader2D, root Shader2D) (baseName string, nodes []Shader2D, err error) {
	if root == nil {
		return "", nil, errors.New("nil shader object")
	}
	baseName = string(root.AppendShaderName([]byte{}))
	if baseName == "" {
		return "", nil, errors.New("empty shader name")
	}
	dst, err = AppendAllNodes(dst, root)
	if err != nil {
		return "", nil, err
	}
	return baseName, dst, nil
}

// AppendShaderSource appends the full GLSL function declaration of s to dst and
// returns the result along with the name and body sub-slices.
func AppendShaderSource(dst []byte, s Shader) (result, name, body []byte) {
	dst = append(dst, "float "...)
	nameStart := len(dst)
	dst = s.AppendShaderName(dst)
	nameEnd := len(dst)
	dst = append(dst, "(vec2 p, out vec4 c){\n"...)
	bodyStart := len(dst)
	dst = s.AppendShaderBody(dst)
	bodyEnd := len(dst)
	dst = append(dst, "\n}\n"...)
	return dst, dst[nameStart:nameEnd], dst[bodyStart:bodyEnd]
}

// AppendAllNodes BFS iterates over all of root's descendants and appends all nodes
// found to dst.
//
// To generate shaders one must iterate over nodes in reverse order to ensure
// the first iterated nodes are the nodes with no dependencies on other nodes.
func AppendAllNodes(dst []Shader2D, root Shader2D) ([]Shader2D, error) {
	var userData any
	children := []Shader2D{root}
	nextChild := 0
	nilChild := errors.New("got nil child in AppendAllNodes")
	for len(children[nextChild:]) > 0 {
		newChildren := children[nextChild:]
		for _, obj := range newChildren {
			nextChild++
			err := obj.ForEach2DChild(userData, func(userData any, s Shader2D) error {
				if s == nil {
					return nilChild
				}
				children = append(children, s)
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	dst = append(dst, children...)
	return dst, nil
}

func forEachNodeDFS(obj Shader2D, fnEnter, fnExit func(s Shader2D) error) error {
	err := fnEnter(obj)
	if err != nil {
		return err
	}
	err = obj.ForEach2DChild(nil, func(userData any, s Shader2D) error {
		return forEachNodeDFS(s, fnEnter, fnExit)
	})
	if err != nil {
		return err
	}
	return fnExit(obj)
}

// CountDirectChildren returns the amount of children obj reports in ForEach2DChild.
func CountDirectChildren(obj Shader2D) (directChildren int) {
	obj.ForEach2DChild(nil, func(userData any, s Shader2D) error {
		directChildren++
		return nil
	})
	return directChildren
}

// AppendDistanceDecl appends a distance and color declaration that
// evaluates s at sdfPositionArgInput:
//
//	vec4 <colorVarname>;
//	float <floatVarname>=<name>(<sdfPositionArgInput>,<colorVarname>);
func AppendDistanceDecl(b []byte, floatVarname, colorVarname, sdfPositionArgInput string, s Shader) []byte {
	b = append(b, "vec4 "...)
	b = append(b, colorVarname...)
	b = append(b, ";\nfloat "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = s.AppendShaderName(b)
	b = append(b, '(')
	b = append(b, sdfPositionArgInput...)
	b = append(b, ',')
	b = append(b, colorVarname...)
	b = append(b, ");\n"...)
	return b
}

func AppendVec2Decl(b []byte, vec2Varname string, v ms2.Vec) []byte {
	b = append(b, "vec2 "...)
	b = append(b, vec2Varname...)
	b = append(b, "=vec2("...)
	b = AppendFloats(b, ',', '-', '.', v.X, v.Y)
	b = append(b, ')', ';', '\n')
	return b
}

// AppendVec4Decl appends a vec4 declaration, usually a color.
func AppendVec4Decl(b []byte, vec4Varname string, x, y, z, w float32) []byte {
	b = append(b, "vec4 "...)
	b = append(b, vec4Varname...)
	b = append(b, "=vec4("...)
	b = AppendFloats(b, ',', '-', '.', x, y, z, w)
	b = append(b, ')', ';', '\n')
	return b
}

func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ';', '\n')
	return b
}

func AppendMat2Decl(b []byte, mat2Varname string, m22 ms2.Mat2) []byte {
	arr := m22.Array()
	b = append(b, "mat2 "...)
	b = append(b, mat2Varname...)
	b = append(b, "=mat2("...)
	const row = 2
	for i := 0; i < row; i++ {
		for j := 0; j < row; j++ {
			v := arr[j*row+i] // Column major access, as per OpenGL standard.
			b = AppendFloat(b, '-', '.', v)
			if !(i == row-1 && j == row-1) {
				b = append(b, ',')
			}
		}
	}
	b = append(b, ");\n"...)
	return b
}

const decimalDigits = 9

// AppendFloat appends v in decimal form replacing the negative sign and
// decimal point with neg and decimal. Use 'n' and 'p' to make the
// result usable inside a GLSL identifier.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

// AppendFloatsHash appends a short base-32 hash of the argument values. Useful to keep
// shader names short when a node carries many parameters.
func AppendFloatsHash(b []byte, values ...float32) []byte {
	var buf [4]byte
	h := uint64(0x9e3779b97f4a7c15)
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h = hash(buf[:], h)
	}
	return strconv.AppendUint(b, h, 32)
}

// AppendNamesHash appends a short base-32 hash of the names of the argument shaders.
// Operation nodes use it so that names do not grow with the depth of the tree.
func AppendNamesHash(b []byte, shaders ...Shader) []byte {
	h := uint64(0xff51afd7ed558ccd)
	var scratch []byte
	for _, s := range shaders {
		scratch = s.AppendShaderName(scratch[:0])
		scratch = append(scratch, ',')
		h = hash(scratch, h)
	}
	return strconv.AppendUint(b, h, 32)
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}

// FormatShader returns a compact representation of the shader tree using the
// node type names, i.e: "union(circle,translate(circle))".
func FormatShader(sh Shader2D) string {
	if sh == nil {
		panic("nil shader")
	}
	prevWasPrimitive := false
	var sb strings.Builder
	err := forEachNodeDFS(sh, func(s Shader2D) error {
		if prevWasPrimitive {
			sb.WriteByte(',')
		}
		tp := reflect.TypeOf(s)
		if tp.Kind() == reflect.Pointer {
			tp = tp.Elem()
		}
		sb.WriteString(tp.Name())
		if CountDirectChildren(s) != 0 {
			sb.WriteByte('(')
		}
		prevWasPrimitive = false
		return nil
	}, func(s Shader2D) error {
		isPrimitive := CountDirectChildren(s) == 0
		if !isPrimitive {
			sb.WriteByte(')')
		}
		prevWasPrimitive = true
		return nil
	})
	if err != nil {
		return err.Error()
	}
	return sb.String()
}
