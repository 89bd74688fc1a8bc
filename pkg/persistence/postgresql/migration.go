package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE users (
				id TEXT PRIMARY KEY,
				username VARCHAR(255) NOT NULL UNIQUE,
				role VARCHAR(20) NOT NULL CHECK (role IN ('ADMIN', 'MANAGER', 'USER')),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_users_role ON users(role);

			CREATE TABLE approval_requests (
				id TEXT PRIMARY KEY,
				item_type VARCHAR(50) NOT NULL,
				item_id TEXT,
				operation VARCHAR(10) NOT NULL CHECK (operation IN ('CREATE', 'UPDATE', 'DELETE')),
				data JSONB NOT NULL DEFAULT '{}',
				status VARCHAR(30) NOT NULL CHECK (status IN ('PENDING', 'PARTIALLY_APPROVED', 'APPROVED', 'REJECTED', 'WITHDRAWN')),
				status_reason TEXT NOT NULL DEFAULT '',
				requester_id TEXT NOT NULL REFERENCES users(id),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			-- At most one active request per targeted item.
			CREATE UNIQUE INDEX uq_approval_requests_active_item
				ON approval_requests(item_type, item_id)
				WHERE item_id IS NOT NULL AND status IN ('PENDING', 'PARTIALLY_APPROVED');

			CREATE INDEX idx_approval_requests_requester ON approval_requests(requester_id, created_at DESC);
			CREATE INDEX idx_approval_requests_status ON approval_requests(status);

			CREATE TABLE approval_decisions (
				id TEXT PRIMARY KEY,
				request_id TEXT NOT NULL REFERENCES approval_requests(id),
				approver_id TEXT NOT NULL REFERENCES users(id),
				approver_role VARCHAR(20) NOT NULL,
				approved BOOLEAN NOT NULL,
				comment TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				CONSTRAINT uq_approval_decisions_approver UNIQUE (request_id, approver_id)
			);

			CREATE INDEX idx_approval_decisions_request ON approval_decisions(request_id, created_at);
		`,
		2: `
			CREATE TABLE todos (
				id TEXT PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				level VARCHAR(10) NOT NULL CHECK (level IN ('LOW', 'MEDIUM', 'HIGH')),
				completed BOOLEAN NOT NULL DEFAULT FALSE,
				user_id TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE invoices (
				id TEXT PRIMARY KEY,
				amount NUMERIC(14, 2) NOT NULL,
				status VARCHAR(20) NOT NULL CHECK (status IN ('CREATED', 'SENT', 'PAID', 'CANCELLED')),
				level VARCHAR(10) NOT NULL CHECK (level IN ('LOW', 'MEDIUM', 'HIGH')),
				user_id TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
		`,
	}
}
