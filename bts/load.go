package bts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	gwerrors "osmo-gateway/errors"
)

// File 是槽位配置文件的顶层结构：{"bts": [...]}。
type File struct {
	BTS []SlotConfig `json:"bts" yaml:"bts"`
}

// LoadFile 读取槽位配置文件（.json，或 .yaml/.yml 同结构）并创建 Pool。
// 参数：
// - path: 文件路径
// 返回：
// - *Pool: 槽位池
// - error: 文件缺失、格式错误或内容非法时返回 CodeConfig
func LoadFile(path string) (*Pool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.CodeConfig, "read bts config", err)
	}
	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &f)
	default:
		err = json.Unmarshal(raw, &f)
	}
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.CodeConfig, "parse bts config", err)
	}
	if err := Validate(f.BTS); err != nil {
		return nil, err
	}
	return NewPool(f.BTS), nil
}

// Validate 校验槽位列表：至少一项，osmux_port 在 [0, 65535]，非零端口不可重复。
func Validate(cfgs []SlotConfig) error {
	if len(cfgs) == 0 {
		return gwerrors.New(gwerrors.CodeConfig, "bts config has no entries")
	}
	seen := make(map[int]int, len(cfgs))
	for i, c := range cfgs {
		if c.OsmuxPort < 0 || c.OsmuxPort > 65535 {
			return gwerrors.Wrap(gwerrors.CodeConfig, "invalid bts entry", fmt.Errorf("bts[%d].osmux_port=%d", i, c.OsmuxPort))
		}
		if c.OsmuxPort == 0 {
			continue
		}
		if j, ok := seen[c.OsmuxPort]; ok {
			return gwerrors.Wrap(gwerrors.CodeConfig, "invalid bts entry", fmt.Errorf("bts[%d] and bts[%d] share osmux_port %d", j, i, c.OsmuxPort))
		}
		seen[c.OsmuxPort] = i
	}
	return nil
}
