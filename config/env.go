package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	gwerrors "osmo-gateway/errors"
)

// LookupFunc 与 os.LookupEnv 同签名，测试中可替换。
type LookupFunc func(key string) (string, bool)

// serviceEnv 列出每类服务的 host/port 环境变量名。
var serviceEnv = map[ServiceKind][2]string{
	ServiceMedia:   {"OSMO_UDP_MEDIA_URI", "OSMO_UDP_MEDIA_PORT"},
	ServiceAbisOML: {"OSMO_TCP_ABIS_OML_URI", "OSMO_TCP_ABIS_OML_PORT"},
	ServiceAbisRSL: {"OSMO_TCP_ABIS_RSL_URI", "OSMO_TCP_ABIS_RSL_PORT"},
	ServiceHLR:     {"OSMO_TCP_HLR_URI", "OSMO_TCP_HLR_PORT"},
	ServiceBSC:     {"OSMO_TCP_BSC_URI", "OSMO_TCP_BSC_PORT"},
}

// ApplyEnv 用 OSMO_* 环境变量覆盖配置，覆盖后重新校验。
// 参数：
// - cfg: 待覆盖的配置（原地修改）
// - lookup: 环境变量查询函数，nil 时使用 os.LookupEnv
// 返回：
// - error: 数值变量格式错误或覆盖后校验失败
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return gwerrors.Wrap(gwerrors.CodeConfig, "invalid env "+key, fmt.Errorf("%q", v))
		}
		*dst = n
		return nil
	}

	if err := num("OSMO_SERVER_PORT", &cfg.Gateway.ListenPort); err != nil {
		return err
	}
	if err := num("OSMO_WORKER_POOL_SIZE", &cfg.Gateway.WorkerPoolSize); err != nil {
		return err
	}
	str("OSMO_CONTROL_URI", &cfg.Gateway.ControlPath)
	str("OSMO_ABIS_OML_URI", &cfg.Gateway.OMLPath)
	str("OSMO_ABIS_RSL_URI", &cfg.Gateway.RSLPath)
	str("OSMO_MEDIA_URI", &cfg.Gateway.MediaPath)
	str("OSMO_BTS_CONFIG", &cfg.Gateway.BTSConfigPath)

	for _, kind := range AllServices {
		names := serviceEnv[kind]
		addr := cfg.Services.ref(kind)
		str(names[0], &addr.Host)
		if err := num(names[1], &addr.Port); err != nil {
			return err
		}
	}
	return Validate(*cfg)
}
