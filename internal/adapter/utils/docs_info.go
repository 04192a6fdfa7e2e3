package utils

//run qdrant
//docker run -p 6333:6333 -p 6334:6334 -v qdrant_data:/qdrant/storage qdrant/qdrant

//run redis (optional, ingestion ledger)
//docker run -p 6379:6379 -d redis

//swagger init
//swag init -g cmd/chat-api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/chat-api/docs
