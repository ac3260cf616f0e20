// Command order-watch polls the order API as a buyer and/or a seller and logs
// a notification whenever one of their orders changes status.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/config"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	h "github.com/shafadisyaaulia/seasnacky-sub000/internal/http"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/logger"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/notify"
)

const tokenTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pollers []*notify.Poller

	if cfg.WatchBuyerID != "" || cfg.WatchGuestID != "" {
		src := notify.NewHTTPSource(cfg.APIBaseURL, notify.BuyerOrdersPath)
		if cfg.WatchBuyerID != "" {
			src.Token = mustToken(log, cfg.JWTSecret, cfg.WatchBuyerID, domain.RoleBuyer)
		} else {
			src.GuestID = cfg.WatchGuestID
		}
		pollers = append(pollers, notify.NewPoller("buyer", src, cfg.BuyerPollInterval, notify.LogNotifier{Logger: log}, log))
	}

	if cfg.WatchSellerID != "" {
		src := notify.NewHTTPSource(cfg.APIBaseURL, notify.SellerOrdersPath)
		src.Token = mustToken(log, cfg.JWTSecret, cfg.WatchSellerID, domain.RoleSeller)
		pollers = append(pollers, notify.NewPoller("seller", src, cfg.SellerPollInterval, notify.LogNotifier{Logger: log}, log))
	}

	if len(pollers) == 0 {
		log.Fatal().Msg("nothing to watch: set WATCH_BUYER_ID, WATCH_GUEST_ID or WATCH_SELLER_ID")
	}

	var wg sync.WaitGroup
	for _, p := range pollers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(ctx)
		}()
	}
	wg.Wait()
	log.Info().Msg("order-watch exited")
}

func mustToken(log zerolog.Logger, secret, userID string, role domain.Role) string {
	tok, err := h.GenerateToken(secret, userID, role, tokenTTL)
	if err != nil {
		log.Fatal().Err(err).Str("user_id", userID).Msg("failed to sign token")
	}
	return tok
}
