// internal/blockchain/solbc/error_analyzer.go
package solbc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rovshanmuradov/raydium-swap/internal/blockchain"
	"go.uber.org/zap"
)

// AnchorError represents an error from Anchor framework
type AnchorError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

func (a AnchorError) String() string {
	return fmt.Sprintf("AnchorError %s (%d): %s", a.Name, a.Code, a.Msg)
}

// ErrorAnalyzer extracts RPC codes, simulation logs and program errors from failed sends
type ErrorAnalyzer struct {
	logger *zap.Logger
}

// NewErrorAnalyzer creates a new ErrorAnalyzer instance
func NewErrorAnalyzer(logger *zap.Logger) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		logger: logger.Named("error-analyzer"),
	}
}

// AnalyzeSendError converts a sendTransaction failure into *blockchain.SendError
func (ea *ErrorAnalyzer) AnalyzeSendError(err error) *blockchain.SendError {
	if err == nil {
		return nil
	}

	result := &blockchain.SendError{Message: err.Error(), Err: err}

	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return result
	}

	result.Code = rpcErr.Code
	result.Message = rpcErr.Message
	result.SimulationFailed = strings.Contains(rpcErr.Message, "Transaction simulation failed")

	if dataMap, ok := rpcErr.Data.(map[string]interface{}); ok {
		if logs, ok := dataMap["logs"].([]interface{}); ok {
			for _, entry := range logs {
				if line, ok := entry.(string); ok {
					result.Logs = append(result.Logs, line)
				}
			}
		}
		if instErr, ok := dataMap["err"]; ok && instErr != nil {
			result.InstructionError = instErr
		}
	}

	result.ProgramError = ea.programError(rpcErr.Message, result.Logs)
	return result
}

// programError finds the most specific program failure description in logs or message
func (ea *ErrorAnalyzer) programError(message string, logs []string) string {
	for _, line := range logs {
		if strings.Contains(line, "AnchorError occurred") {
			anchorErr := ea.parseAnchorErrorLog(line)
			ea.logger.Warn("Anchor error detected",
				zap.Int("code", anchorErr.Code),
				zap.String("name", anchorErr.Name),
				zap.String("message", anchorErr.Msg))
			return anchorErr.String()
		}
	}

	for i := len(logs) - 1; i >= 0; i-- {
		if idx := strings.Index(logs[i], " failed: "); idx >= 0 && strings.HasPrefix(logs[i], "Program ") {
			return strings.TrimSpace(logs[i][idx+len(" failed: "):])
		}
	}

	if idx := strings.Index(message, "custom program error:"); idx >= 0 {
		return strings.TrimSpace(message[idx:])
	}
	return ""
}

// parseAnchorErrorLog parses an Anchor error log string
// Example: "Program log: AnchorError occurred. Error Code: InstructionFallbackNotFound. Error Number: 101. Error Message: Fallback functions are not supported."
func (ea *ErrorAnalyzer) parseAnchorErrorLog(logStr string) AnchorError {
	result := AnchorError{}

	if parts := strings.SplitN(logStr, "Error Number:", 2); len(parts) == 2 {
		numPart := strings.SplitN(parts[1], ".", 2)[0]
		fmt.Sscanf(strings.TrimSpace(numPart), "%d", &result.Code)
	}

	if parts := strings.SplitN(logStr, "Error Code:", 2); len(parts) == 2 {
		result.Name = strings.TrimSpace(strings.SplitN(parts[1], ".", 2)[0])
	}

	if parts := strings.SplitN(logStr, "Error Message:", 2); len(parts) == 2 {
		result.Msg = strings.TrimSuffix(strings.TrimSpace(parts[1]), ".")
	}

	return result
}
