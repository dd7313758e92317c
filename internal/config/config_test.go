package config

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	convey.Convey("Given an empty environment", t, func() {
		cfg, err := Load()

		convey.Convey("Defaults apply", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Port, convey.ShouldEqual, "8080")
			convey.So(cfg.DatabaseDriver, convey.ShouldEqual, DriverSQLite)
			convey.So(cfg.WaitlistScanLimit, convey.ShouldEqual, 25)
			convey.So(cfg.TxBackoff, convey.ShouldEqual, 20*time.Millisecond)
			convey.So(cfg.ReconcileInterval, convey.ShouldEqual, time.Minute)
			convey.So(cfg.DirectoryEnabled(), convey.ShouldBeFalse)
			convey.So(cfg.DiscordEnabled(), convey.ShouldBeFalse)
		})
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TX_BACKOFF", "50ms")
	t.Setenv("RECONCILE_INTERVAL", "30s")
	t.Setenv("PROMOTION_WORKERS", "8")
	t.Setenv("DIRECTORY_URL", "http://directory.local")
	t.Setenv("DISCORD_BOT_TOKEN", "bot")
	t.Setenv("DISCORD_NOTIFICATIONS_CHANNEL_ID", "chan")
	t.Setenv("JWT_SECRET", "s3cret")

	convey.Convey("Given overrides in the environment", t, func() {
		cfg, err := Load()
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Port, convey.ShouldEqual, "9090")
		convey.So(cfg.TxBackoff, convey.ShouldEqual, 50*time.Millisecond)
		convey.So(cfg.ReconcileInterval, convey.ShouldEqual, 30*time.Second)
		convey.So(cfg.PromotionWorkers, convey.ShouldEqual, 8)
		convey.So(cfg.JWTSecret, convey.ShouldEqual, "s3cret")
		convey.So(cfg.DirectoryEnabled(), convey.ShouldBeTrue)
		convey.So(cfg.DiscordEnabled(), convey.ShouldBeTrue)
	})
}

func TestLoadRejectsInvalid(t *testing.T) {
	convey.Convey("Given an invalid environment", t, func() {
		convey.Convey("An unknown driver is rejected", func() {
			t.Setenv("DATABASE_DRIVER", "mongo")
			_, err := Load()
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Postgres without a URL is rejected", func() {
			t.Setenv("DATABASE_DRIVER", DriverPostgres)
			_, err := Load()
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("A zero scan limit is rejected", func() {
			t.Setenv("WAITLIST_SCAN_LIMIT", "0")
			_, err := Load()
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
