// Package redis connects to Redis with go-redis and exposes a health probe.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redisstore.New(client)
//
// Connect retries the initial ping; Healthcheck plugs into the HTTP
// server's readiness endpoint.
package redis
