package domain

// PhotoMeta 是从 EXIF 归一化得到的展示元数据（最小可用集）。
//
// 约束：
// - 六个字段在渲染开始前必须全部填充：缺失用各自的回退字面量表示，
//   不存在“字段为空/未定义”的中间状态
// - 生成后只读（渲染阶段不得修改）
type PhotoMeta struct {
	Camera   string `json:"camera"`   // 例如 "Canon EOS 40D"，回退 "Unknown Camera"
	Lens     string `json:"lens"`     // 回退 "Unknown Lens"
	Aperture string `json:"aperture"` // "f/8.0" / "f/4"，回退 "f/?"
	Shutter  string `json:"shutter"`  // "1/100s"，回退 "?s"
	ISO      string `json:"iso"`      // "ISO 200"，回退 "ISO ?"
	DateTime string `json:"datetime"` // "YYYY-MM-DD HH:MM:SS"，回退 "Unknown Date"
}

// TagSet 是按标签名索引的原始 EXIF 值（字符串化）。
//
// 有理数保持 "num/denom" 原样（例如 FNumber="8/1"），展示格式由归一化阶段决定。
// 生成后只读；不在集合里的标签一律视为缺失，而不是错误。
type TagSet map[string]string
