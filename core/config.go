package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool

		AppName          string
		Build            string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail string
		WorkDir          string

		SendgridAPIKey string
		RollbarToken   string

		Server    ServerConfig
		Database  DatabaseConfig
		Auth      AuthConfig
		SVC       SVCConfig
		FileStore FileStoreConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ShutdownTimeout time.Duration

		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	// AuthConfig holds the shared secret used to verify tokens minted by the
	// external identity provider. The provider owns credentials; we only check
	// signatures and read the stable subject id off the claims.
	AuthConfig struct {
		ProviderSecret string
	}

	// SVCConfig holds the skill-coin ledger knobs.
	// RewardPolicy decides what happens to the flat completion reward:
	//   "mint"     - the reward is created on completion (source behavior)
	//   "transfer" - no reward is minted; only the escrowed course price
	//                moves to the teacher
	SVCConfig struct {
		StartingBonus int
		DefaultReward int
		RewardPolicy  string
	}

	FileStoreConfig struct {
		Root    string
		BaseURL string
	}
)

const (
	RewardPolicyMint     = "mint"
	RewardPolicyTransfer = "transfer"
)

func (c DatabaseConfig) Address() string { return c.Host + ":" + c.Port }
func (c ServerConfig) Address() string   { return c.Host + ":" + c.Port }

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Skilldom")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "c01n$-f0r-$k1ll$&2y#a0o)s(v^c+o!i@dev-only")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "noreply@skilldom.app")
	v.SetDefault("sendgridAPIKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "skilldom")
	v.SetDefault("database.user", "skilldom")
	v.SetDefault("database.password", "skilldom")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("auth.providerSecret", "")

	v.SetDefault("svc.startingBonus", 500)
	v.SetDefault("svc.defaultReward", 100)
	v.SetDefault("svc.rewardPolicy", RewardPolicyMint)

	v.SetDefault("fileStore.root", "uploads")
	v.SetDefault("fileStore.baseURL", "http://localhost:8000/files")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// load .env.<env> if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         env == "TEST" || v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		WorkDir:          wd,
		SendgridAPIKey:   v.GetString("sendgridAPIKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetString("server.port"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Auth: AuthConfig{
			ProviderSecret: v.GetString("auth.providerSecret"),
		},
		SVC: SVCConfig{
			StartingBonus: v.GetInt("svc.startingBonus"),
			DefaultReward: v.GetInt("svc.defaultReward"),
			RewardPolicy:  v.GetString("svc.rewardPolicy"),
		},
		FileStore: FileStoreConfig{
			Root:    v.GetString("fileStore.root"),
			BaseURL: v.GetString("fileStore.baseURL"),
		},
	}

	if conf.Auth.ProviderSecret == "" {
		// fall back to the app secret so local dev works out of the box
		conf.Auth.ProviderSecret = conf.SecretKey
	}
	if p := conf.SVC.RewardPolicy; p != RewardPolicyMint && p != RewardPolicyTransfer {
		log.Fatal(fmt.Errorf("config: unknown svc.rewardPolicy %q", p))
	}
	return conf
}
