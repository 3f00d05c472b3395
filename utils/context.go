package utils

type contextKey string

const RequestIDKey = contextKey("requestID")
