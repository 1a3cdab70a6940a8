package postgres

var EncodeChange = encodeChange
