package postgres

func SchemaStatements() int { return len(schema) }
