package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE function_models (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'published', 'unpublished')),
				nodes JSONB NOT NULL DEFAULT '[]',
				actions JSONB NOT NULL DEFAULT '[]',
				metadata JSONB,
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				published_at TIMESTAMP WITH TIME ZONE,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_function_models_status ON function_models(status);
			CREATE INDEX idx_function_models_owner ON function_models(owner);
			CREATE INDEX idx_function_models_created_at ON function_models(created_at);
			CREATE INDEX idx_function_models_deleted_at ON function_models(deleted_at);
		`,
		2: `
			CREATE TABLE orchestration_results (
				id BIGSERIAL PRIMARY KEY,
				orchestration_id VARCHAR(255) NOT NULL,
				action_id VARCHAR(255) NOT NULL,
				success BOOLEAN NOT NULL,
				output JSONB,
				duration_ns BIGINT NOT NULL DEFAULT 0,
				error TEXT NOT NULL DEFAULT '',
				executed_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_orchestration_results_orchestration_id ON orchestration_results(orchestration_id);
			CREATE INDEX idx_orchestration_results_executed_at ON orchestration_results(executed_at);
		`,
	}
}
