package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jinzhu/configor"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wentf9/commkit/pkg/crypto"
	"github.com/wentf9/commkit/pkg/utils/file"
)

type Store interface {
	Load() (Config, error)
	Save(cfg Config) error
}

type defaultStore struct {
	Path    string   // YAML 配置文件, 可以不存在
	KeyPath string   // 解密 ENC: 字段的密钥文件
	DotEnv  []string // 依次加载的 .env 文件, 不覆盖已有环境变量
}

func NewDefaultStore(path, keyPath string, dotenv ...string) Store {
	return &defaultStore{
		Path:    path,
		KeyPath: keyPath,
		DotEnv:  dotenv,
	}
}

// Load 依次读取 .env、YAML 文件和环境变量, 解密 ENC: 字段并补全默认值
func (s *defaultStore) Load() (Config, error) {
	var cfg Config
	if envFiles := existing(s.DotEnv...); len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return cfg, fmt.Errorf("load dotenv: %w", err)
		}
	}

	loader := configor.New(&configor.Config{ENVPrefix: "CKIT", Silent: true})
	if err := loader.Load(&cfg, existing(s.Path)...); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", s.Path, err)
	}

	if err := s.reveal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.SSH.KnownHosts == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.SSH.KnownHosts = filepath.Join(home, ".ssh", "known_hosts")
		}
	}
	return cfg, nil
}

// Save 加密敏感字段后写入 YAML 文件, 权限 0600
func (s *defaultStore) Save(cfg Config) error {
	c, err := s.crypter()
	if err != nil {
		return err
	}
	for _, secret := range secrets(&cfg) {
		if *secret == "" || crypto.IsSealed(*secret) {
			continue
		}
		if *secret, err = c.Seal(*secret); err != nil {
			return fmt.Errorf("seal secret: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return file.WritePrivate(s.Path, data)
}

func (s *defaultStore) reveal(cfg *Config) error {
	var c *crypto.Crypter
	for _, secret := range secrets(cfg) {
		if !crypto.IsSealed(*secret) {
			continue
		}
		if c == nil {
			var err error
			if c, err = s.crypter(); err != nil {
				return err
			}
		}
		plain, err := c.Open(*secret)
		if err != nil {
			return fmt.Errorf("decrypt config value: %w", err)
		}
		*secret = plain
	}
	return nil
}

func (s *defaultStore) crypter() (*crypto.Crypter, error) {
	key, err := crypto.LoadOrGenerateKey(s.KeyPath)
	if err != nil {
		return nil, err
	}
	return crypto.NewCrypter(key)
}

// secrets 返回允许以 ENC: 形式保存的字段
func secrets(cfg *Config) []*string {
	return []*string{
		&cfg.Twilio.AuthToken,
		&cfg.Email.Password,
		&cfg.Telegram.Token,
	}
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
