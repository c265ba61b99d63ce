package fontx

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// BuiltinName 是内置回退字体在 report 中的标识。
const BuiltinName = "builtin"

// Resolver 尝试解析出一个可用字体面。
// 返回的 name 用于标注最终生效的字体（候选路径或 BuiltinName）。
type Resolver func(size float64) (face font.Face, name string, err error)

// DefaultCandidates 是平台字体的固定搜索列表，第一个存在且可解析的胜出。
// 列表命中与否都不影响流水线成败（见 Resolve）。
var DefaultCandidates = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	`C:\Windows\Fonts\arial.ttf`,
}

// FileResolver 从磁盘加载 TTF/OTF 字体；.ttc 集合取第一个字形。
func FileResolver(path string) Resolver {
	return func(size float64) (font.Face, string, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}

		f, perr := opentype.Parse(b)
		if perr != nil {
			c, cerr := opentype.ParseCollection(b)
			if cerr != nil {
				return nil, "", perr
			}
			if c.NumFonts() == 0 {
				return nil, "", fmt.Errorf("字体集合为空：%s", path)
			}
			f, err = c.Font(0)
			if err != nil {
				return nil, "", err
			}
		}

		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, "", err
		}
		return face, path, nil
	}
}

// BuiltinResolver 返回内置位图字体，永不失败（字号被忽略）。
func BuiltinResolver() Resolver {
	return func(float64) (font.Face, string, error) {
		return basicfont.Face7x13, BuiltinName, nil
	}
}

// Resolve 依次尝试 resolvers，第一个成功者胜出。
// 尾部始终隐含内置回退，因此 Resolve 必然返回可用字体：
// 字体解析失败只会降级展示效果，从不中止流水线。
func Resolve(size float64, resolvers ...Resolver) (font.Face, string) {
	for _, r := range resolvers {
		if r == nil {
			continue
		}
		if face, name, err := r(size); err == nil && face != nil {
			return face, name
		}
	}
	face, name, _ := BuiltinResolver()(size)
	return face, name
}

// DefaultFace 按 extra + 平台候选列表解析字体。extra（来自配置/CLI）优先。
func DefaultFace(size float64, extra ...string) (font.Face, string) {
	rs := make([]Resolver, 0, len(extra)+len(DefaultCandidates))
	for _, p := range extra {
		if strings.TrimSpace(p) != "" {
			rs = append(rs, FileResolver(p))
		}
	}
	for _, p := range DefaultCandidates {
		rs = append(rs, FileResolver(p))
	}
	return Resolve(size, rs...)
}
