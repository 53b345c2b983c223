package mocks

//go:generate mockgen -destination=./mock_broker.go -package=mocks github.com/rxtech-lab/argo-lines/internal/broker Broker
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-lines/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_analyzer.go -package=mocks github.com/rxtech-lab/argo-lines/internal/analyzer Analyzer
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-lines/internal/strategy Strategy
