package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkbot/bot"
	"linkbot/impl/core"
	"linkbot/internal/config"
	"linkbot/internal/database"
	"linkbot/internal/http-server/api"
	"linkbot/internal/scheduler"
	"linkbot/lib/clock"
	"linkbot/lib/logger"
	"linkbot/lib/sl"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	logg := logger.SetupLogger(conf.Env, *logPath)
	logg.Info("starting linkbot", slog.String("config", *configPath), slog.String("env", conf.Env))

	location, err := time.LoadLocation(conf.Location)
	if err != nil {
		log.Fatal("loading location: ", err)
	}

	db, err := database.NewSQLClient(conf)
	if err != nil {
		log.Fatal("database connection: ", err)
	}

	clk := clock.System()

	timers := scheduler.New(clk, logg)
	timers.Start()

	service := core.New(db, timers, clk, logg, core.Options{
		FirstReminderMin:  conf.Telegram.FirstReminderMin,
		SecondReminderMin: conf.Telegram.SecondReminderMin,
		Location:          location,
		ApiToken:          conf.Api.Token,
		ApiOperator:       conf.Api.Operator,
	})

	mongo := database.NewMongoClient(conf)
	if mongo != nil {
		service.SetMessageLog(mongo)
	}

	tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, service, logg, bot.BotConfig{
		GroupChatId: conf.Telegram.GroupChatId,
		TopicId:     conf.Telegram.TopicId,
		AdminId:     conf.Telegram.AdminId,
		Location:    location,
	})
	if err != nil {
		log.Fatal("telegram bot: ", err)
	}
	service.SetPublisher(tgBot)

	// High-severity log records go to the admin chat from here on.
	logg = slog.New(logger.NewTelegramHandler(logg.Handler(), tgBot, slog.LevelError))

	// Timers do not survive a restart; rebuild them before taking updates.
	if err = service.Recover(); err != nil {
		logg.Error("recovering reminder timers", sl.Err(err))
	}

	if conf.Api.Enabled {
		go func() {
			if err := api.New(conf, logg, service); err != nil {
				logg.Error("api server stopped", sl.Err(err))
			}
		}()
	}

	go func() {
		if err := tgBot.Start(); err != nil {
			logg.Error("telegram bot stopped", sl.Err(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logg.Info("shutting down")
	tgBot.Stop()
	timers.Stop()
}
