package app

import (
	a "bitwise74/invoice-api/aws"
	"bitwise74/invoice-api/cloudflare"
	"bitwise74/invoice-api/db"
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/internal/assistant"
	"bitwise74/invoice-api/internal/billing"
	"bitwise74/invoice-api/internal/service"
	"bitwise74/invoice-api/internal/session"
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/internal/store/local"
	"bitwise74/invoice-api/internal/store/managed"
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewDeps wires every backend and optional feature from the loaded config.
// The returned cron runs the share link cleanup and must be stopped on
// shutdown.
func NewDeps(ctx context.Context) (*internal.Deps, *cron.Cron, error) {
	demo, err := newDemoStore()
	if err != nil {
		return nil, nil, err
	}
	localBackend := local.NewBackend(demo)

	cleanup := map[string]store.ShareLinkRepository{
		localBackend.Name: localBackend.ShareLinks,
	}

	managedBackend, err := newManagedBackend(ctx)
	if err != nil {
		return nil, nil, err
	}
	if managedBackend != nil && viper.GetString("sharelink.backend") == "database" {
		cleanup[managedBackend.Name] = managedBackend.ShareLinks
	}

	factory, err := store.NewFactory(managedBackend, localBackend)
	if err != nil {
		return nil, nil, err
	}

	partitions := local.NewPartitions(demo, viper.GetDuration("demo.session_idle"))
	factory.SetPartitions(partitions)

	provider, err := newIdentityProvider()
	if err != nil {
		return nil, nil, err
	}

	sessions := session.NewAdapter(provider, factory,
		session.WithRecheckDelay(viper.GetDuration("identity.recheck_delay")),
		session.WithStorageLimit(viper.GetInt64("storage.default_limit")),
	)

	d := &internal.Deps{
		Factory:       factory,
		Sessions:      sessions,
		Demo:          partitions,
		Gifts:         billing.NewGiftCodes(viper.GetStringSlice("gift.codes"), nil),
		PublicURL:     publicURL(),
		MaxUploadSize: viper.GetInt64("upload.max_size"),
		SecureCookies: viper.GetBool("host.ssl.enabled"),
	}

	d.Stripe, err = billing.NewStripe(billing.Config{
		SecretKey:     viper.GetString("stripe.secret_key"),
		WebhookSecret: viper.GetString("stripe.webhook_secret"),
		SuccessURL:    d.PublicURL + "/app/settings?checkout=success",
		CancelURL:     d.PublicURL + "/app/settings?checkout=cancel",
		Prices:        viper.GetStringMapString("stripe.prices"),
		StorageLimit:  viper.GetInt64("storage.default_limit"),
	})
	if errors.Is(err, billing.ErrBillingDisabled) {
		zap.L().Info("Stripe is not configured, billing is disabled")
	} else if err != nil {
		return nil, nil, err
	}

	d.Assistant, err = assistant.New(viper.GetString("openai.api_key"), viper.GetString("openai.base_url"), viper.GetString("openai.model"))
	if errors.Is(err, assistant.ErrDisabled) {
		zap.L().Info("OpenAI is not configured, the assistant is disabled")
	} else if err != nil {
		return nil, nil, err
	}

	d.Mailer, err = service.NewShareMailer(service.MailConfig{
		Host:     viper.GetString("mail.host"),
		Port:     viper.GetInt("mail.port"),
		Sender:   viper.GetString("mail.sender_address"),
		Password: viper.GetString("mail.password"),
	})
	if errors.Is(err, service.ErrMailDisabled) {
		zap.L().Info("Mail is not configured, share links can't be mailed")
	} else if err != nil {
		return nil, nil, err
	}

	c, err := service.ShareLinkCleanup(viper.GetString("sharelink.cleanup"), cleanup)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to schedule share link cleanup, %w", err)
	}

	return d, c, nil
}

func newDemoStore() (*local.Store, error) {
	switch viper.GetString("demo.storage") {
	case "disk":
		s, err := local.NewDisk(viper.GetString("demo.dir"))
		if err != nil {
			return nil, fmt.Errorf("failed to open demo store, %w", err)
		}
		return s, nil
	case "memory":
		return local.NewMemory(), nil
	}

	zap.L().Warn("Demo store is disabled, demo data won't be kept")
	return local.Unavailable(), nil
}

// newManagedBackend returns nil when the database or the object store isn't
// configured
func newManagedBackend(ctx context.Context) (*store.Backend, error) {
	driver := viper.GetString("database.driver")
	storageType := viper.GetString("storage.type")

	if driver == "none" || storageType == "none" {
		return nil, nil
	}

	gdb, err := db.New(driver, viper.GetString("database.dsn"))
	if err != nil {
		return nil, err
	}

	var client *a.S3Client
	switch storageType {
	case "s3":
		client, err = a.NewS3(ctx)
	case "r2":
		client, err = cloudflare.NewR2(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s client, %w", storageType, err)
	}

	payloads := managed.NewS3Payloads(client.C, client.Bucket, viper.GetDuration("storage.url_expiry"))

	var shareLinks store.ShareLinkRepository
	if viper.GetString("sharelink.backend") == "redis" {
		rdb, err := db.NewRedis(viper.GetString("redis.url"))
		if err != nil {
			return nil, err
		}
		shareLinks = managed.NewRedisShareLinks(rdb)
	}

	return managed.NewBackend(gdb, payloads, shareLinks), nil
}

func newIdentityProvider() (session.IdentityProvider, error) {
	switch viper.GetString("identity.provider") {
	case "jwt":
		return session.NewJWTProvider(viper.GetString("identity.jwt_secret"), viper.GetString("identity.issuer"))
	case "userinfo":
		return session.NewUserInfoProvider(viper.GetString("identity.userinfo_url"), viper.GetDuration("identity.timeout"))
	}

	zap.L().Warn("No identity provider configured, only demo mode is available")
	return nil, nil
}

func publicURL() string {
	if u := viper.GetString("host.public_url"); u != "" {
		return u
	}

	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, viper.GetString("host.domain"))
}
